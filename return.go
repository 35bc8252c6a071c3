// Copyright 2025 The restsvc Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package restsvc

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	rerrors "github.com/restsvc/restsvc/errors"
)

// Responder is implemented by results that write their own response.
type Responder interface {
	Respond(ctx *ServiceContext) error
}

// ReferencedResource is a response pointing at another resource through the
// Location header: a created resource, an accepted job or a redirect.
type ReferencedResource struct {
	Location   string
	StatusCode int

	// Body is written with the negotiated codec when non-nil.
	Body any
}

// NewResource returns a 201 Created reference to location.
func NewResource(location string) *ReferencedResource {
	return &ReferencedResource{Location: location, StatusCode: http.StatusCreated}
}

// RequestAccepted returns a 202 Accepted reference to location, typically a
// job status resource.
func RequestAccepted(location string) *ReferencedResource {
	return &ReferencedResource{Location: location, StatusCode: http.StatusAccepted}
}

// MovedPermanently returns a 301 redirect to location.
func MovedPermanently(location string) *ReferencedResource {
	return &ReferencedResource{Location: location, StatusCode: http.StatusMovedPermanently}
}

// MovedTemporarily returns a 302 redirect to location.
func MovedTemporarily(location string) *ReferencedResource {
	return &ReferencedResource{Location: location, StatusCode: http.StatusFound}
}

// NewReferencedResource returns a reference with an arbitrary status. The
// status must be a valid HTTP status code.
func NewReferencedResource(location string, status int) (*ReferencedResource, error) {
	r := &ReferencedResource{Location: location, StatusCode: status}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	return r, nil
}

// WithBody sets the body sent along with the reference.
func (r *ReferencedResource) WithBody(body any) *ReferencedResource {
	r.Body = body
	return r
}

// Validate reports an invalid status code.
func (r *ReferencedResource) Validate() error {
	if !rerrors.ValidStatus(r.StatusCode) {
		return fmt.Errorf("referenced resource: invalid status code %d", r.StatusCode)
	}

	return nil
}

// Respond implements [Responder].
func (r *ReferencedResource) Respond(ctx *ServiceContext) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.Location != "" {
		ctx.Response.Header().Set("Location", r.Location)
	}
	if r.Body == nil {
		ctx.Response.WriteHeader(r.StatusCode)
		return nil
	}

	return ctx.Write(r.StatusCode, r.Body)
}

// DownloadResource sends a file from disk as an attachment.
type DownloadResource struct {
	FilePath string
	// FileName is the name offered to the client. Defaults to the base name
	// of FilePath.
	FileName string
}

// Respond implements [Responder]. A missing file yields 404.
func (d *DownloadResource) Respond(ctx *ServiceContext) error {
	f, err := os.Open(d.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return rerrors.NotFoundError("file not found").WithCause(err)
		}
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return rerrors.NotFoundError("file not found")
	}

	name := d.FileName
	if name == "" {
		name = filepath.Base(d.FilePath)
	}
	ctx.Response.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	http.ServeContent(ctx.Response, ctx.Request, name, info.ModTime(), f)

	return nil
}

// DownloadBinaryData sends in-memory content as an attachment.
type DownloadBinaryData struct {
	Content  []byte
	MimeType string
	FileName string
}

// Respond implements [Responder].
func (d *DownloadBinaryData) Respond(ctx *ServiceContext) error {
	h := ctx.Response.Header()
	mimeType := d.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	h.Set("Content-Type", mimeType)
	if d.FileName != "" {
		h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": d.FileName}))
	}
	h.Set("Content-Length", fmt.Sprint(len(d.Content)))
	ctx.Response.WriteHeader(http.StatusOK)
	_, err := ctx.Response.Write(d.Content)

	return err
}

type noResponse struct{}

func (noResponse) Respond(*ServiceContext) error { return nil }

// NoResponse is returned by endpoints that wrote the response themselves.
var NoResponse Responder = noResponse{}
