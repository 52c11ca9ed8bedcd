package extract

import (
	"sort"
	"strings"

	"github.com/tcec-chess/livefeed/internal/watch"
)

const (
	// maxTagged caps the tagged lines kept from one delta.
	maxTagged = 8
	// maxExtra caps the untagged variation lines emitted once pvDistinct
	// variations have been seen.
	maxExtra = 2
	// pvDistinct is the number of distinct variations that completes the pv category.
	pvDistinct = 3
	// engineOffset is the last index at which the engine marker may appear.
	engineOffset = 15
)

// Transcript tags the interesting lines of an engine transcript delta.
// Lines are scanned newest first and the scan stops once a start position,
// a search start, a principal variation and a best move were all seen, or
// once maxTagged lines were kept.
type Transcript struct {
	StartMarker    string
	GoMarker       string
	ConfigMarker   string
	PVMarker       string
	BestMoveMarker string
	EngineMarker   string
	Delimiters     []string
}

// NewTranscript returns a classifier for UCI engine transcripts.
func NewTranscript() *Transcript {
	return &Transcript{
		StartMarker:    "startpos",
		GoMarker:       "go",
		ConfigMarker:   "setoption",
		PVMarker:       "pv",
		BestMoveMarker: "bestmove",
		EngineMarker:   "<",
		Delimiters:     []string{"<-", "->", "<", ">"},
	}
}

// Extract implements Extractor.
func (t *Transcript) Extract(w *watch.Watch, d watch.Delta) (any, bool) {
	lines := t.Classify(string(d.Text))
	if len(lines) == 0 {
		return nil, false
	}
	return LogPayload{File: fileName(w), Lines: lines}, true
}

type keptLine struct {
	index int
	line  Line
}

// Classify returns the kept lines of text, oldest first.
func (t *Transcript) Classify(text string) []Line {
	rows := strings.Split(text, "\n")

	var (
		kept                              []keptLine
		tagged                            int
		seenStart, seenGo, seenPV, seenBM bool
		variations                        = make(map[string]bool)
		queued                            []int
	)
	keep := func(i int, tag string) {
		kept = append(kept, keptLine{index: i, line: Line{Tag: tag, Text: t.clean(rows[i])}})
	}

	for i := len(rows) - 1; i >= 0; i-- {
		if (seenStart && seenGo && seenPV && seenBM) || tagged >= maxTagged {
			break
		}
		row := strings.TrimRight(rows[i], "\r")
		rows[i] = row
		if strings.TrimSpace(row) == "" {
			continue
		}

		switch {
		case hasWord(row, t.StartMarker):
			keep(i, "start")
			tagged++
			seenStart = true
		case hasWord(row, t.GoMarker):
			keep(i, "go")
			tagged++
			seenGo = true
		case hasWord(row, t.ConfigMarker):
			keep(i, "config")
			tagged++
		case t.isPV(row):
			variation := t.variation(row)
			if len(variations) == 0 {
				variations[variation] = true
				keep(i, "pv")
				tagged++
				continue
			}
			if seenPV || variations[variation] {
				continue
			}
			variations[variation] = true
			queued = append(queued, i)
			if len(variations) >= pvDistinct {
				seenPV = true
				for _, q := range queued[:min(len(queued), maxExtra)] {
					keep(q, "")
				}
				queued = nil
			}
		case strings.Contains(row, t.BestMoveMarker):
			keep(i, "bestmove")
			tagged++
			seenBM = true
		}
	}

	sort.Slice(kept, func(a, b int) bool {
		return kept[a].index < kept[b].index
	})
	lines := make([]Line, len(kept))
	for i, k := range kept {
		lines[i] = k.line
	}
	return lines
}

// isPV reports whether row is engine output carrying a principal variation.
func (t *Transcript) isPV(row string) bool {
	idx := strings.Index(row, t.EngineMarker)
	return idx >= 0 && idx <= engineOffset && hasWord(row, t.PVMarker)
}

// variation returns the moves following the pv marker.
func (t *Transcript) variation(row string) string {
	fields := strings.Fields(row)
	for i, f := range fields {
		if f == t.PVMarker {
			return strings.Join(fields[i+1:], " ")
		}
	}
	return ""
}

// clean removes the first engine delimiter and the whitespace around it.
func (t *Transcript) clean(row string) string {
	best, width := -1, 0
	for _, d := range t.Delimiters {
		if i := strings.Index(row, d); i >= 0 && (best < 0 || i < best) {
			best, width = i, len(d)
		}
	}
	if best < 0 {
		return strings.TrimSpace(row)
	}
	left := strings.TrimSpace(row[:best])
	right := strings.TrimSpace(row[best+width:])
	if left == "" {
		return right
	}
	if right == "" {
		return left
	}
	return left + " " + right
}

func hasWord(row, word string) bool {
	if word == "" {
		return false
	}
	for _, f := range strings.Fields(row) {
		if f == word {
			return true
		}
	}
	return false
}
