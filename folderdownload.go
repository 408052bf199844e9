// Package main (folderdownload.go) :
// These methods are for downloading all files from a shared folder of Google Drive without API key.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// entry : An item of the listing of a folder.
type entry struct {
	Ref   reference
	Title string
}

// parseListing : Retrieve the files and folders linked from the embedded view of a folder.
func parseListing(doc *html.Node, self string) []entry {
	var entries []entry
	seen := map[string]bool{self: true}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href := attr(n, "href"); strings.Contains(href, "/file/d/") || isFolderURL(href) {
				if ref, err := classify(href); err == nil && !seen[ref.ID] {
					seen[ref.ID] = true
					entries = append(entries, entry{Ref: ref, Title: entryTitle(n)})
				}
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return entries
}

// entryTitle : Title of a listed item. The element of class "flip-entry-title" is used when it exists.
func entryTitle(a *html.Node) string {
	t := findElement(a, func(n *html.Node) bool {
		for _, c := range strings.Fields(attr(n, "class")) {
			if c == "flip-entry-title" {
				return true
			}
		}
		return false
	})
	if t != nil {
		return strings.TrimSpace(textContent(t))
	}
	return strings.TrimSpace(textContent(a))
}

// listFolder : Retrieve the listing of the folder.
func (w *webDownloader) listFolder(ctx context.Context, id string) ([]entry, error) {
	u := strings.TrimSuffix(w.cfg.BaseURL, "/") + "/embeddedfolderview?id=" + id
	res, err := w.get(ctx, u)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	doc, err := html.Parse(res.Body)
	if err != nil {
		return nil, err
	}
	return parseListing(doc, id), nil
}

// downloadFolder : Download all files of the folder to dir, recursively.
func (w *webDownloader) downloadFolder(ctx context.Context, folderURL, dir string) error {
	ref, err := classify(folderURL)
	if err != nil {
		return err
	}
	entries, err := w.listFolder(ctx, ref.ID)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("no files were found in the folder '%s'. The folder might not be shared", ref.ID)
	}
	visited := map[string]bool{ref.ID: true}
	failed, total := w.downloadEntries(ctx, entries, dir, visited)
	if failed > 0 {
		return fmt.Errorf("%d of %d items in the folder could not be downloaded", failed, total)
	}
	return nil
}

// downloadEntries : Download the entries to dir. Failed files are reported and skipped.
// A folder which cannot be listed counts as one failed item.
func (w *webDownloader) downloadEntries(ctx context.Context, entries []entry, dir string, visited map[string]bool) (failed, total int) {
	used := map[string]int{}
	for _, e := range entries {
		if e.Ref.Kind == kindFile {
			total++
			if _, err := w.downloadFileIn(ctx, e.Ref.directURL(w.cfg.BaseURL), dir, used); err != nil {
				fmt.Fprintf(w.cfg.Out, "## Skipped: '%s' (fileId: %s): %v\n", e.Title, e.Ref.ID, err)
				failed++
			}
			continue
		}
		if visited[e.Ref.ID] {
			continue
		}
		visited[e.Ref.ID] = true
		name := safeName(e.Title)
		if name == "" || name == "." || name == ".." {
			name = fallbackName(e.Ref.ID)
		}
		sub := filepath.Join(dir, dedupe(used, name))
		if err := os.MkdirAll(sub, 0777); err != nil {
			fmt.Fprintf(w.cfg.Out, "## Skipped: folder '%s': %v\n", sub, err)
			failed++
			total++
			continue
		}
		children, err := w.listFolder(ctx, e.Ref.ID)
		if err != nil {
			fmt.Fprintf(w.cfg.Out, "## Skipped: folder '%s': %v\n", sub, err)
			failed++
			total++
			continue
		}
		f, t := w.downloadEntries(ctx, children, sub, visited)
		failed += f
		total += t
	}
	return failed, total
}
