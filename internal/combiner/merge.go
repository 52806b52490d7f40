package combiner

import (
	"strings"

	"github.com/spec-kit/activity-service/internal/domain"
)

// unionCodeActions prepends the incoming actions that the prior record does
// not carry yet. The prior list is deduplicated on the way.
func unionCodeActions(incoming, prior domain.CodeActions) domain.CodeActions {
	out := make(domain.CodeActions, 0, len(incoming)+len(prior))
	for _, action := range prior {
		if !out.Contains(action) {
			out = append(out, action)
		}
	}
	for _, action := range incoming {
		if !out.Contains(action) {
			out = append(domain.CodeActions{action}, out...)
		}
	}
	return out
}

// commitsOverlap reports whether two pushes share a commit url or message.
func commitsOverlap(prior, incoming []domain.Commit) bool {
	for _, a := range prior {
		for _, b := range incoming {
			if a.URL != "" && a.URL == b.URL {
				return true
			}
			if a.Message != "" && a.Message == b.Message {
				return true
			}
		}
	}
	return false
}

// unionCommits keeps the incoming commits first and appends prior commits
// whose url is not already present.
func unionCommits(incoming, prior []domain.Commit) []domain.Commit {
	out := make([]domain.Commit, 0, len(incoming)+len(prior))
	seen := make(map[string]struct{}, len(incoming)+len(prior))
	for _, list := range [][]domain.Commit{incoming, prior} {
		for _, commit := range list {
			if commit.URL != "" {
				if _, ok := seen[commit.URL]; ok {
					continue
				}
				seen[commit.URL] = struct{}{}
			}
			out = append(out, commit)
		}
	}
	return out
}

// unionAttachments keeps the incoming files first and appends prior files
// whose id is not already present.
func unionAttachments(incoming, prior []domain.Attachment) []domain.Attachment {
	out := make([]domain.Attachment, 0, len(incoming)+len(prior))
	seen := make(map[string]struct{}, len(incoming)+len(prior))
	for _, list := range [][]domain.Attachment{incoming, prior} {
		for _, file := range list {
			if file.ID != "" {
				if _, ok := seen[file.ID]; ok {
					continue
				}
				seen[file.ID] = struct{}{}
			}
			out = append(out, file)
		}
	}
	return out
}

// dedupeConsecutiveChanges drops an entry that repeats the field of the entry
// right before it with the same new value. Description edits are considered
// repeats whenever both values are set.
func dedupeConsecutiveChanges(entries []domain.ChangeLogEntry) []domain.ChangeLogEntry {
	out := make([]domain.ChangeLogEntry, 0, len(entries))
	for i, entry := range entries {
		if i > 0 && repeatsChange(entries[i-1], entry) {
			continue
		}
		out = append(out, entry)
	}
	return out
}

func repeatsChange(prev, entry domain.ChangeLogEntry) bool {
	if prev.Field != entry.Field || prev.NewValue == nil || entry.NewValue == nil {
		return false
	}
	return *prev.NewValue == *entry.NewValue || entry.Field == "description"
}

// joinVersions appends the incoming version label to the prior history
// unless it is already part of it.
func joinVersions(prior, incoming domain.PageVersion) domain.PageVersion {
	switch {
	case prior == "":
		return incoming
	case incoming == "" || prior == incoming:
		return prior
	}
	for _, label := range strings.Split(string(prior), ", ") {
		if label == string(incoming) {
			return prior
		}
	}
	return prior + ", " + incoming
}
