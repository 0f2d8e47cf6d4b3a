package intake

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"3nt3/datamakeover/notify"
	"3nt3/datamakeover/storage"
)

type UploadRequest struct {
	FileName    string
	Content     io.Reader
	Size        int64
	ContentType string
	Email       string
	// Description is the requested transformation. It is passed along
	// verbatim and never interpreted.
	Description string
}

type Result struct {
	SubmissionID string `json:"submission_id"`
	FileName     string `json:"file_name"`
	Location     string `json:"location"`
	Message      string `json:"message"`
	// Notified lists the channels that accepted the notification.
	Notified []string             `json:"notified"`
	Warnings []*NotificationError `json:"-"`
}

// Handler stores submitted files and notifies whoever processes them.
type Handler struct {
	store     storage.StorageProvider
	notifiers []notify.Notifier
	log       *slog.Logger
}

func NewHandler(store storage.StorageProvider, log *slog.Logger, notifiers ...notify.Notifier) *Handler {
	return &Handler{
		store:     store,
		notifiers: notifiers,
		log:       log,
	}
}

func (h *Handler) validate(req UploadRequest) error {
	if req.Content == nil || req.FileName == "" || req.Size == 0 {
		return &ValidationError{Field: "file"}
	}
	if strings.TrimSpace(req.Email) == "" {
		return &ValidationError{Field: "email"}
	}
	if strings.TrimSpace(req.Description) == "" {
		return &ValidationError{Field: "description"}
	}
	return nil
}

// Submit validates req, stores its file under its own name and notifies every
// configured channel. Only validation and storage failures are returned as
// errors; notification failures end up in Result.Warnings.
func (h *Handler) Submit(ctx context.Context, req UploadRequest) (*Result, error) {
	if err := h.validate(req); err != nil {
		h.log.Info("Rejected submission", "error", err)
		return nil, err
	}

	id := uuid.NewString()
	log := h.log.With("submission", id, "file", req.FileName)

	location, err := h.store.StoreFile(ctx, req.Content, storage.Blob{
		Name:        req.FileName,
		ContentType: req.ContentType,
		Size:        req.Size,
	})
	if err != nil {
		log.Error("Unable to store file", "error", err)
		return nil, &StorageError{Name: req.FileName, Err: err}
	}
	log.Info("Stored file", "location", location)

	res := &Result{
		SubmissionID: id,
		FileName:     req.FileName,
		Location:     location,
		Message:      fmt.Sprintf("File '%s' uploaded successfully.", req.FileName),
	}

	upload := notify.Upload{
		SubmissionID: id,
		Email:        req.Email,
		FileName:     req.FileName,
		Description:  req.Description,
		Location:     location,
	}
	for _, n := range h.notifiers {
		if err := n.Notify(ctx, upload); err != nil {
			log.Warn("Unable to send notification", "channel", n.Name(), "error", err)
			res.Warnings = append(res.Warnings, &NotificationError{Channel: n.Name(), Err: err})
			continue
		}
		log.Info("Sent notification", "channel", n.Name())
		res.Notified = append(res.Notified, n.Name())
	}

	return res, nil
}
