// Package main (fileinf.go) :
// These methods are for retrieving the information of a shared file using API key.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"
)

const fileInfFields = "createdTime,id,md5Checksum,mimeType,modifiedTime,name,owners,parents,shared,size,webContentLink,webViewLink"

// getFileInf : Retrieve file infomation using Drive API.
func (a *apiDownloader) getFileInf(ctx context.Context, id string) (*drive.File, error) {
	client := &http.Client{
		Transport: &transport.APIKey{Key: a.cfg.APIKey},
	}
	srv, err := drive.NewService(ctx, option.WithHTTPClient(client), option.WithEndpoint(a.cfg.APIBase))
	if err != nil {
		return nil, err
	}
	return srv.Files.Get(id).Fields(googleapi.Field(fileInfFields)).Context(ctx).Do()
}

// showFileInf : Show file information.
func (a *apiDownloader) showFileInf(ctx context.Context, id string) error {
	file, err := a.getFileInf(ctx, id)
	if err != nil {
		return err
	}
	r, err := json.Marshal(file)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.cfg.Out, "%s\n", r)
	return nil
}
