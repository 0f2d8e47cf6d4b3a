package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
)

// Azure stores blobs in a single Azure Blob Storage container.
type Azure struct {
	client    *azblob.Client
	container string
}

func NewAzure(connectionString, container string) (*Azure, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to create blob service client: %w", err)
	}
	return &Azure{client: client, container: container}, nil
}

// StoreFile uploads the blob as a block blob. Block blob uploads always
// replace an existing blob of the same name.
func (a *Azure) StoreFile(ctx context.Context, r io.Reader, b Blob) (string, error) {
	opts := &azblob.UploadStreamOptions{}
	if b.ContentType != "" {
		opts.HTTPHeaders = &blob.HTTPHeaders{BlobContentType: to.Ptr(b.ContentType)}
	}

	if _, err := a.client.UploadStream(ctx, a.container, b.Name, r, opts); err != nil {
		return "", fmt.Errorf("unable to upload blob %s: %w", b.Name, err)
	}
	return strings.TrimSuffix(a.client.URL(), "/") + "/" + a.container + "/" + b.Name, nil
}
