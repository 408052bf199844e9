// Package main (reference.go) :
// These methods are for classifying a shared URL and extracting the ID of the file or folder.
package main

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// kind : Kind of the shared item.
type kind int

const (
	kindFile kind = iota
	kindFolder
)

func (k kind) String() string {
	if k == kindFolder {
		return "folder"
	}
	return "file"
}

// folderSegment : A URL containing this segment is a link of a shared folder.
const folderSegment = "/folders/"

var errUnrecognizedURL = errors.New("could not extract an ID from the URL")

// parseError : Returned by classify when no matcher accepts the input.
type parseError struct {
	Input string
	Kind  kind
}

func (e *parseError) Error() string {
	return fmt.Sprintf("could not extract %s ID from URL: %s", e.Kind, e.Input)
}

func (e *parseError) Is(target error) bool {
	return target == errUnrecognizedURL
}

// reference : Kind and ID of a shared item.
type reference struct {
	Kind kind
	ID   string
}

// directURL : URL which starts the content transfer of a file.
func (r reference) directURL(base string) string {
	return strings.TrimSuffix(base, "/") + "/uc?id=" + r.ID
}

// folderURL : URL of the web view of a folder.
func (r reference) folderURL(base string) string {
	return strings.TrimSuffix(base, "/") + "/drive/folders/" + r.ID
}

// matcher : A named pattern. The first capture group is the ID.
type matcher struct {
	Name string
	Re   *regexp.Regexp
}

func (m matcher) match(s string) (string, bool) {
	res := m.Re.FindStringSubmatch(s)
	if len(res) < 2 {
		return "", false
	}
	return res[1], true
}

var (
	fileView   = matcher{Name: "fileView", Re: regexp.MustCompile(`/file/d/([a-zA-Z0-9_-]+)`)}
	folderView = matcher{Name: "folderView", Re: regexp.MustCompile(`/folders/([a-zA-Z0-9_-]+)`)}
	idQuery    = matcher{Name: "idQuery", Re: regexp.MustCompile(`id=([a-zA-Z0-9_-]+)`)}
	bareID     = matcher{Name: "bareID", Re: regexp.MustCompile(`^([a-zA-Z0-9_-]+)$`)}
)

// Matchers are tried in order and the first match wins.
var (
	fileMatchers   = []matcher{fileView, idQuery, bareID}
	folderMatchers = []matcher{folderView, idQuery}
)

// isFolderURL : Check whether the URL is a link of a shared folder.
func isFolderURL(s string) bool {
	return strings.Contains(s, folderSegment)
}

// classify : Parse inputted URL to the kind and the ID.
// A bare token made of ID characters is accepted as a file ID.
func classify(s string) (reference, error) {
	s = strings.TrimSpace(s)
	k, matchers := kindFile, fileMatchers
	if isFolderURL(s) {
		k, matchers = kindFolder, folderMatchers
	}
	for _, m := range matchers {
		if id, ok := m.match(s); ok {
			return reference{Kind: k, ID: id}, nil
		}
	}
	return reference{}, &parseError{Input: s, Kind: k}
}
