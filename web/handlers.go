package web

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"

	"3nt3/datamakeover/intake"
)

var validationMessages = map[string]string{
	"file":        "Please upload a CSV or Excel file.",
	"email":       "Please provide a valid email address.",
	"description": "Please describe your transformation before submitting.",
}

type page struct {
	Email       string
	Description string
	Result      *intake.Result
	Warnings    []string
	Error       string
}

type submissionResponse struct {
	*intake.Result
	Warnings []string `json:"warnings,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func index(c echo.Context) error {
	return c.Render(http.StatusOK, "index.html", page{})
}

// readRequest turns the multipart form into an intake request. A missing file
// is not an error here; the intake handler reports it like any other missing
// field.
func readRequest(c echo.Context) (intake.UploadRequest, multipart.File, error) {
	req := intake.UploadRequest{
		Email:       c.FormValue("email"),
		Description: c.FormValue("description"),
	}

	fh, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return req, nil, nil
		}
		return req, nil, err
	}

	f, err := fh.Open()
	if err != nil {
		return req, nil, err
	}
	req.FileName = fh.Filename
	req.Content = f
	req.Size = fh.Size
	req.ContentType = fh.Header.Get(echo.HeaderContentType)
	return req, f, nil
}

func submit(c echo.Context) (intake.UploadRequest, *intake.Result, error) {
	ac := c.(*AppContext)

	req, f, err := readRequest(c)
	if err != nil {
		return req, nil, echo.NewHTTPError(http.StatusBadRequest, "Unable to read the uploaded file").SetInternal(err)
	}
	if f != nil {
		defer f.Close()
	}

	res, err := ac.Intake.Submit(c.Request().Context(), req)
	return req, res, err
}

func warnings(res *intake.Result) []string {
	var out []string
	for _, w := range res.Warnings {
		out = append(out, w.Error())
	}
	return out
}

func submitForm(c echo.Context) error {
	req, res, err := submit(c)
	p := page{Email: req.Email, Description: req.Description}

	var (
		verr *intake.ValidationError
		serr *intake.StorageError
	)
	switch {
	case err == nil:
		p.Result = res
		p.Warnings = warnings(res)
		return c.Render(http.StatusOK, "index.html", p)
	case errors.As(err, &verr):
		p.Error = validationMessages[verr.Field]
		return c.Render(http.StatusBadRequest, "index.html", p)
	case errors.As(err, &serr):
		p.Error = "Error uploading file '" + serr.Name + "'. Please try again later."
		return c.Render(http.StatusBadGateway, "index.html", p)
	}
	return err
}

func submitAPI(c echo.Context) error {
	_, res, err := submit(c)

	var (
		verr *intake.ValidationError
		serr *intake.StorageError
	)
	switch {
	case err == nil:
		return c.JSON(http.StatusCreated, submissionResponse{Result: res, Warnings: warnings(res)})
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: verr.Error(), Field: verr.Field})
	case errors.As(err, &serr):
		return c.JSON(http.StatusBadGateway, errorResponse{Error: "unable to store " + serr.Name})
	}
	return err
}
