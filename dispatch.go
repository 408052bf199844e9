// Package main (dispatch.go) :
// These methods are for dispatching an inputted URL to the downloader of a file or a folder.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// fileTransfer : Downloads a file of the direct download URL to dir and returns the saved path.
type fileTransfer interface {
	downloadFile(ctx context.Context, directURL, dir string) (string, error)
}

// folderTransfer : Downloads all files of the folder URL to dir.
type folderTransfer interface {
	downloadFolder(ctx context.Context, folderURL, dir string) error
}

// infoSource : Shows the information of files and folders.
type infoSource interface {
	showFileInf(ctx context.Context, id string) error
	showFolderInf(ctx context.Context, id string) error
}

type dispatcher struct {
	cfg     *config
	files   fileTransfer
	folders folderTransfer
	names   func(ctx context.Context, id string) string
	info    infoSource
}

// itemResult : Result of one URL of a batch.
type itemResult struct {
	URL string
	Err error
}

// batchResult : Results of a batch in input order.
type batchResult struct {
	Items     []itemResult
	Succeeded int
	Failed    int
}

// ensureDir : Create output folder if it doesn't exist.
func (d *dispatcher) ensureDir(dir string) error {
	if _, err := os.Stat(dir); err == nil {
		return nil
	}
	if err := os.MkdirAll(dir, 0777); err != nil {
		return fmt.Errorf("creating folder '%s': %w", dir, err)
	}
	fmt.Fprintf(d.cfg.Out, "Created folder: %s\n", dir)
	return nil
}

// download : Download file or folder based on URL type.
func (d *dispatcher) download(ctx context.Context, u string) error {
	ref, err := classify(u)
	if err != nil {
		return err
	}
	if d.cfg.ShowFileInf {
		return d.showInf(ctx, ref)
	}
	if ref.Kind == kindFolder {
		return d.downloadFolder(ctx, ref)
	}
	return d.downloadFile(ctx, ref)
}

func (d *dispatcher) showInf(ctx context.Context, ref reference) error {
	if d.info == nil {
		return fmt.Errorf("%w when you want to use the option '--fileinf'", errNeedAPIKey)
	}
	if ref.Kind == kindFolder {
		return d.info.showFolderInf(ctx, ref.ID)
	}
	return d.info.showFileInf(ctx, ref.ID)
}

func (d *dispatcher) downloadFolder(ctx context.Context, ref reference) error {
	dir := filepath.Join(d.cfg.WorkDir, d.names(ctx, ref.ID))
	if err := d.ensureDir(dir); err != nil {
		return err
	}
	fmt.Fprintf(d.cfg.Out, "Downloading folder ID: %s\n", ref.ID)
	if err := d.folders.downloadFolder(ctx, ref.folderURL(d.cfg.BaseURL), dir); err != nil {
		return fmt.Errorf("downloading folder: %w", err)
	}
	fmt.Fprintf(d.cfg.Out, "Successfully downloaded folder to: %s\n", dir)
	return nil
}

func (d *dispatcher) downloadFile(ctx context.Context, ref reference) error {
	if err := d.ensureDir(d.cfg.WorkDir); err != nil {
		return err
	}
	fmt.Fprintf(d.cfg.Out, "Downloading file ID: %s\n", ref.ID)
	p, err := d.files.downloadFile(ctx, ref.directURL(d.cfg.BaseURL), d.cfg.WorkDir)
	if err != nil {
		return fmt.Errorf("downloading file: %w", err)
	}
	fmt.Fprintf(d.cfg.Out, "Successfully downloaded: %s\n", p)
	return nil
}

// batch : Download the URLs one by one in order. A failure is reported and the next URL is processed.
func (d *dispatcher) batch(ctx context.Context, urls []string) batchResult {
	var r batchResult
	fmt.Fprintf(d.cfg.Out, "\nDownloading %d items...\n", len(urls))
	for i, u := range urls {
		fmt.Fprintf(d.cfg.Out, "\n[%d/%d]\n", i+1, len(urls))
		err := d.download(ctx, u)
		if err != nil {
			fmt.Fprintf(d.cfg.Out, "## Skipped: Error: %v\n", err)
			r.Failed++
		} else {
			r.Succeeded++
		}
		r.Items = append(r.Items, itemResult{URL: u, Err: err})
	}
	fmt.Fprintf(d.cfg.Out, "\nDone. %d succeeded, %d failed.\n", r.Succeeded, r.Failed)
	return r
}
