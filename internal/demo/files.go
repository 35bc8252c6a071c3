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

package demo

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/restsvc/restsvc"
)

// Upload is a multipart file upload.
type Upload struct {
	File        *multipart.FileHeader `file:"file" validate:"required"`
	Description string                `form:"description" validate:"max=500"`
}

// UploadResult describes a received upload.
type UploadResult struct {
	Name        string `json:"name" xml:"name" yaml:"name"`
	Size        int64  `json:"size" xml:"size" yaml:"size"`
	Lines       int    `json:"lines" xml:"lines" yaml:"lines"`
	Description string `json:"description,omitempty" xml:"description,omitempty" yaml:"description,omitempty"`
}

// FileService shows downloads, uploads, redirects and accepted jobs.
type FileService struct{}

// Describe implements restsvc.Service.
func (*FileService) Describe(d *restsvc.Descriptor) {
	d.Path("/files").Tags("files")

	d.GET("/report.csv", restsvc.HandlerFunc(report)).
		Summary("Download the todo report")
	d.GET("/report", restsvc.HandlerFunc(func(*restsvc.ServiceContext) (any, error) {
		return restsvc.MovedPermanently("/files/report.csv"), nil
	}))
	d.POST("/uploads", restsvc.Typed(upload)).
		Consumes("multipart/form-data").
		Security("editor", "viewer").
		Status(http.StatusCreated)
	d.POST("/exports", restsvc.HandlerFunc(func(*restsvc.ServiceContext) (any, error) {
		return restsvc.RequestAccepted("/files/exports/1").WithBody(map[string]string{"state": "queued"}), nil
	})).Security(restsvc.AnyRole)
}

func report(*restsvc.ServiceContext) (any, error) {
	return &restsvc.DownloadBinaryData{
		Content:  []byte("id,title,done\n1,write docs,false\n"),
		MimeType: "text/csv",
		FileName: "report.csv",
	}, nil
}

func upload(_ *restsvc.ServiceContext, in *Upload) (*UploadResult, error) {
	f, err := in.File.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return &UploadResult{
		Name:        in.File.Filename,
		Size:        in.File.Size,
		Lines:       bytes.Count(data, []byte{'\n'}),
		Description: in.Description,
	}, nil
}
