// Package main (filedownload.go) :
// These methods are for downloading a shared file from Google Drive without API key.
package main

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	pb "gopkg.in/cheggaaa/pb.v1"
)

// webDownloader : Downloader using the public endpoints of Google Drive.
type webDownloader struct {
	cfg    *config
	client *http.Client
}

// downloadFile : Download the file of the direct download URL to dir and return the saved path.
// A large file returns a warning instead of the content. Then the confirm code is retrieved
// from the cookie or from the form of the warning page, and the file is requested again.
func (w *webDownloader) downloadFile(ctx context.Context, u, dir string) (string, error) {
	return w.downloadFileIn(ctx, u, dir, nil)
}

// downloadFileIn : Same as downloadFile. When used is not nil, a filename already used in dir
// during this download is numbered.
func (w *webDownloader) downloadFileIn(ctx context.Context, u, dir string, used map[string]int) (string, error) {
	res, err := w.get(ctx, u)
	if err != nil {
		return "", err
	}
	if hasDisposition(res) {
		return w.saveIn(res, dir, "", used)
	}
	if code := confirmCode(res); code != "" {
		res.Body.Close()
		res, err = w.get(ctx, u+"&confirm="+url.QueryEscape(code))
		if err != nil {
			return "", err
		}
		if hasDisposition(res) {
			return w.saveIn(res, dir, "", used)
		}
	}
	next, ok := confirmForm(res.Body, res.Request.URL)
	res.Body.Close()
	if ok {
		res, err = w.get(ctx, next)
		if err != nil {
			return "", err
		}
		if hasDisposition(res) {
			return w.saveIn(res, dir, "", used)
		}
		res.Body.Close()
	}
	return "", fmt.Errorf("%w: %s", errNotShared, u)
}

// get : GET with a check of status code.
func (w *webDownloader) get(ctx context.Context, u string) (*http.Response, error) {
	res, err := fetchContext(ctx, w.client, u)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		res.Body.Close()
		return nil, &statusError{Code: res.StatusCode, URL: u}
	}
	return res, nil
}

func hasDisposition(res *http.Response) bool {
	return res.Header.Get("Content-Disposition") != ""
}

// confirmCode : When a large size of file is downloaded, a code for downloading is retrieved at here.
func confirmCode(res *http.Response) string {
	for _, e := range res.Cookies() {
		if strings.HasPrefix(e.Name, "download_warning") {
			return e.Value
		}
	}
	return ""
}

// confirmForm : Retrieve the URL submitted by the form of the virus scan warning page.
func confirmForm(r io.Reader, page *url.URL) (string, bool) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", false
	}
	form := findElement(doc, func(n *html.Node) bool {
		return n.Data == "form" && attr(n, "id") == "download-form"
	})
	if form == nil {
		return "", false
	}
	action, err := page.Parse(attr(form, "action"))
	if err != nil {
		return "", false
	}
	q := action.Query()
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "input" && attr(n, "type") == "hidden" && attr(n, "name") != "" {
			q.Set(attr(n, "name"), attr(n, "value"))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(form)
	action.RawQuery = q.Encode()
	return action.String(), true
}

// findElement : Retrieve the first element satisfying f.
func findElement(n *html.Node, f func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && f(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if e := findElement(c, f); e != nil {
			return e
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// getFilename : Retrieve filename from header.
func getFilename(res *http.Response) (string, error) {
	cd := res.Header.Get("Content-Disposition")
	if cd == "" {
		return "", errNoFilename
	}
	_, params, err := mime.ParseMediaType(cd)
	if err != nil {
		return "", err
	}
	return sanitizeFilename(params["filename"])
}

func sanitizeFilename(name string) (string, error) {
	if name == "" || strings.Contains(name, "\x00") {
		return "", errNoFilename
	}
	name = filepath.Base(path.Clean("/" + strings.ReplaceAll(name, "\\", "/")))
	if name == "" || name == "." || name == "/" {
		return "", errNoFilename
	}
	return name, nil
}

// save : Save retrieved data as a file. When name is empty, the filename in the header is used.
func (w *webDownloader) save(res *http.Response, dir, name string) (string, error) {
	return w.saveIn(res, dir, name, nil)
}

// saveIn : The data is written to a temporary file in dir, which is renamed only after the
// whole body was received.
func (w *webDownloader) saveIn(res *http.Response, dir, name string, used map[string]int) (string, error) {
	defer res.Body.Close()
	var err error
	if name == "" {
		if name, err = getFilename(res); err != nil {
			return "", err
		}
	} else if name, err = sanitizeFilename(name); err != nil {
		return "", err
	}
	if used != nil {
		name = dedupe(used, name)
	}
	p := filepath.Join(dir, name)
	if _, err := os.Stat(p); err == nil {
		if w.cfg.Skip {
			fmt.Fprintf(w.cfg.Out, "Downloading '%s' was skipped because of existing.\n", name)
			return p, nil
		}
		if !w.cfg.OverWrite {
			return "", fmt.Errorf("%w: '%s'. If you want to overwrite, please use an option '--overwrite'", errExists, p)
		}
	}
	file, err := os.CreateTemp(dir, "."+name+".*.part")
	if err != nil {
		return "", err
	}
	tmp := file.Name()
	defer func() {
		file.Close()
		os.Remove(tmp)
	}()
	var size int64
	if w.cfg.Disp {
		size, err = io.Copy(file, res.Body)
	} else {
		total := res.ContentLength
		if total < 0 {
			total = 0
		}
		bar := pb.New64(total).SetUnits(pb.U_BYTES)
		bar.Output = w.cfg.Out
		bar.Start()
		size, err = io.Copy(file, bar.NewProxyReader(res.Body))
		bar.Finish()
	}
	if err != nil {
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, p); err != nil {
		return "", err
	}
	fmt.Fprintf(w.cfg.Out, "{\"Filename\": \"%s\", \"MimeType\": \"%s\", \"FileSize\": %d}\n", name, res.Header.Get("Content-Type"), size)
	return p, nil
}
