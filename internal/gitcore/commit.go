package gitcore

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"
)

// Commit is one decoded commit object. Parents are ordered as recorded;
// the first parent is the mainline parent of a merge.
type Commit struct {
	ID         Hash         `json:"id"`
	Parents    []Hash       `json:"parents,omitempty"`
	Author     string       `json:"author"`
	AuthoredAt int64        `json:"authoredAt"`
	Subject    string       `json:"subject"`
	Branches   []string     `json:"branches,omitempty"`
	Stats      *CommitStats `json:"stats,omitempty"`
}

// CommitStats carries line-change counts when a producer has computed them.
// The decoder never fills this in; commits without stats contribute zero to
// aggregate metrics.
type CommitStats struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
}

// IsMerge reports whether the commit has more than one parent.
func (c *Commit) IsMerge() bool {
	return len(c.Parents) > 1
}

// IsRoot reports whether the commit has no parents.
func (c *Commit) IsRoot() bool {
	return len(c.Parents) == 0
}

// parseCommit parses a commit object body: header lines up to the first
// blank line, then the message. Only parent and author headers are
// interpreted; the subject is the first message line.
func parseCommit(id Hash, body []byte) (*Commit, error) {
	commit := &Commit{ID: id}

	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	inMessage := false

	for scanner.Scan() {
		line := scanner.Text()

		if inMessage {
			commit.Subject = line
			break
		}
		if line == "" {
			inMessage = true
			continue
		}

		if rest, ok := strings.CutPrefix(line, "parent "); ok {
			parent, err := NewHash(rest)
			if err != nil {
				continue
			}
			commit.Parents = append(commit.Parents, parent)
		} else if rest, ok := strings.CutPrefix(line, "author "); ok {
			commit.Author = parseAuthorName(rest)
			commit.AuthoredAt = parseAuthorTimestamp(rest)
		}
	}

	return commit, nil
}

// parseAuthorName extracts the name from "Name <email> timestamp tz".
func parseAuthorName(authorLine string) string {
	name, _, ok := strings.Cut(authorLine, " <")
	if !ok || name == "" {
		return "Unknown"
	}
	return name
}

// parseAuthorTimestamp extracts the unix timestamp from
// "Name <email> timestamp tz".
func parseAuthorTimestamp(authorLine string) int64 {
	_, rest, ok := strings.Cut(authorLine, "> ")
	if !ok {
		return 0
	}

	fields := strings.Fields(rest)
	if len(fields) < 1 {
		return 0
	}

	unixTime, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0
	}
	return unixTime
}
