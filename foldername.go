// Package main (foldername.go) :
// These methods are for resolving the name of a shared folder from its web view.
package main

import (
	"context"
	"io"
	"net/http"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// titleSuffix : Branding which the service appends to the page title.
const titleSuffix = " - Google Drive"

// fallbackName : Name used when the title of the folder cannot be retrieved.
func fallbackName(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return "folder_" + id
}

// findTitle : Retrieve the text of the first title element.
func findTitle(r io.Reader) (string, bool) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", false
	}
	var walk func(*html.Node) (string, bool)
	walk = func(n *html.Node) (string, bool) {
		if n.Type == html.ElementNode && n.Data == "title" {
			return textContent(n), true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if t, ok := walk(c); ok {
				return t, true
			}
		}
		return "", false
	}
	return walk(doc)
}

// textContent : Concatenate all text nodes below n.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// cleanTitle : Strip one branding suffix and surrounding spaces.
func cleanTitle(title string) string {
	title = strings.TrimRightFunc(title, unicode.IsSpace)
	title = strings.TrimSuffix(title, titleSuffix)
	return strings.TrimSpace(title)
}

// safeName : Keep the name as a single path element.
func safeName(name string) string {
	return strings.NewReplacer("/", "_", "\\", "_").Replace(name)
}

// resolveFolderName : Retrieve the display name of the folder. This never fails; when the
// title cannot be retrieved, the fallback name is returned.
func resolveFolderName(ctx context.Context, client *http.Client, base, id string) string {
	ref := reference{Kind: kindFolder, ID: id}
	res, err := fetchContext(ctx, client, ref.folderURL(base))
	if err != nil {
		return fallbackName(id)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fallbackName(id)
	}
	title, ok := findTitle(res.Body)
	if !ok {
		return fallbackName(id)
	}
	name := cleanTitle(title)
	if name == "" || name == "." || name == ".." {
		return fallbackName(id)
	}
	return safeName(name)
}
