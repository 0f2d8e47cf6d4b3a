package notify

import (
	"context"
	"fmt"
)

// Upload is the metadata of one stored submission.
type Upload struct {
	SubmissionID string
	Email        string
	FileName     string
	Description  string
	Location     string
}

// Notifier delivers a notification about a stored upload on one channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, u Upload) error
}

func body(u Upload) string {
	return fmt.Sprintf(`A new file has been uploaded.

📧 User Email: %s
📂 File Name: %s
✏️ Transformation Request: %s

Submission: %s
Check the blob storage for the file: %s
`, u.Email, u.FileName, u.Description, u.SubmissionID, u.Location)
}
