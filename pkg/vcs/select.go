package vcs

import (
	"net/url"
	"regexp"
	"strings"
)

// Kind tags the adapter variant selected for a repository URL.
type Kind string

// Known adapter kinds.
const (
	// KindGit is the plain Git adapter.
	KindGit Kind = "git"
	// KindGitHub is the Git adapter enriched with GitHub API auxiliaries.
	KindGitHub Kind = "github"
)

// Predicate decides whether an adapter kind handles a repository URL.
type Predicate func(repoURL string) bool

// rule pairs a predicate with the kind it selects.
type rule struct {
	match Predicate
	kind  Kind
}

// Selector picks an adapter kind for an ambiguous URL by evaluating an
// ordered list of (predicate, kind) pairs in registration order.
type Selector struct {
	rules []rule
}

// scpSyntax matches scp-like git URLs such as git@host:owner/repo.git.
var scpSyntax = regexp.MustCompile(`^[A-Za-z]\w*@[A-Za-z0-9][\w.-]*:`)

// NewSelector creates a selector with the default registration order:
// GitHub-hosted URLs first, then anything that looks like a git URL.
func NewSelector() *Selector {
	s := &Selector{}
	s.Register(isGitHubURL, KindGitHub)
	s.Register(isGitURL, KindGit)

	return s
}

// Register appends a (predicate, kind) pair. Earlier registrations win.
func (s *Selector) Register(match Predicate, kind Kind) {
	s.rules = append(s.rules, rule{match: match, kind: kind})
}

// Detect returns the kind of the first matching rule.
func (s *Selector) Detect(repoURL string) (Kind, bool) {
	for _, r := range s.rules {
		if r.match(repoURL) {
			return r.kind, true
		}
	}

	return "", false
}

// githubHost is the host selecting the GitHub adapter.
const githubHost = "github.com"

func isGitHubURL(repoURL string) bool {
	if scpSyntax.MatchString(repoURL) {
		at := strings.IndexByte(repoURL, '@')
		colon := strings.IndexByte(repoURL, ':')

		return repoURL[at+1:colon] == githubHost
	}

	parsed, err := url.Parse(repoURL)
	if err != nil {
		return false
	}

	return parsed.Hostname() == githubHost
}

func isGitURL(repoURL string) bool {
	if scpSyntax.MatchString(repoURL) {
		return true
	}

	parsed, err := url.Parse(repoURL)
	if err != nil {
		return false
	}

	switch parsed.Scheme {
	case "git", "ssh", "http", "https", "file", "":
		return true
	default:
		return false
	}
}
