package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"3nt3/datamakeover/config"
	"3nt3/datamakeover/intake"
	"3nt3/datamakeover/notify"
	"3nt3/datamakeover/storage"
	"3nt3/datamakeover/web"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "serve the upload form",
		Action: serve,
	}
}

func submitCommand() *cli.Command {
	return &cli.Command{
		Name:  "submit",
		Usage: "submit a file from the command line",
		Flags: []cli.Flag{
			&cli.PathFlag{Name: "file", Aliases: []string{"f"}, Required: true},
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}},
			&cli.StringFlag{Name: "description", Aliases: []string{"d"}},
		},
		Action: submit,
	}
}

// deps holds everything built from the configuration.
type deps struct {
	cfg    config.Config
	store  storage.StorageProvider
	intake *intake.Handler
}

func setup(c *cli.Context) (*deps, error) {
	cfg, err := config.FromCLI(c)
	if err != nil {
		return nil, err
	}
	log := slog.Default()

	store, err := storage.New(c.Context, cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("unable to set up %s storage: %w", cfg.Storage.Backend, err)
	}

	notifiers, err := buildNotifiers(cfg, log)
	if err != nil {
		storage.Close(store)
		return nil, err
	}

	return &deps{
		cfg:    cfg,
		store:  store,
		intake: intake.NewHandler(store, log, notifiers...),
	}, nil
}

func buildNotifiers(cfg config.Config, log *slog.Logger) ([]notify.Notifier, error) {
	var notifiers []notify.Notifier
	if cfg.Mail.Enabled() {
		notifiers = append(notifiers, notify.NewMailer(cfg.Mail))
	} else {
		log.Info("Email notifications disabled, SENDER_EMAIL or RECEIVER_EMAIL is not set")
	}

	if cfg.Telegram.Enabled() {
		tg, err := notify.NewTelegram(cfg.Telegram)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, tg)
	}
	return notifiers, nil
}

func serve(c *cli.Context) error {
	a, err := setup(c)
	if err != nil {
		return err
	}
	defer storage.Close(a.store)

	var extra []web.RouteRegistrar
	if r, ok := a.store.(web.RouteRegistrar); ok {
		extra = append(extra, r)
	}
	srv := web.NewServer(a.intake, slog.Default(), extra...)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		slog.Info("Listening", "addr", a.cfg.ListenAddr, "storage", a.cfg.Storage.Backend)
		errc <- srv.Start(a.cfg.ListenAddr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func submit(c *cli.Context) error {
	a, err := setup(c)
	if err != nil {
		return err
	}
	defer storage.Close(a.store)

	path := c.Path("file")
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	res, err := a.intake.Submit(c.Context, intake.UploadRequest{
		FileName:    filepath.Base(path),
		Content:     f,
		Size:        info.Size(),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		Email:       c.String("email"),
		Description: c.String("description"),
	})
	if err != nil {
		var verr *intake.ValidationError
		if errors.As(err, &verr) {
			return cli.Exit(verr.Error(), 2)
		}
		return err
	}

	fmt.Fprintln(c.App.Writer, res.Message)
	fmt.Fprintf(c.App.Writer, "Stored at: %s\n", res.Location)
	for _, w := range res.Warnings {
		fmt.Fprintf(c.App.ErrWriter, "warning: %v\n", w)
	}
	return nil
}
