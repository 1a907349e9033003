// Package skills extracts candidate skill tokens and scores them against a
// job description by exact token overlap.
package skills

import (
	"math"
	"regexp"
	"strings"
)

var (
	skillSeparators = regexp.MustCompile(`[,;\n]`)
	// A run starts with a letter at a word boundary and continues through
	// letters, digits, hyphen, plus, period and space.
	jobRunPattern = regexp.MustCompile(`\b[a-zA-Z][a-zA-Z0-9\-+. ]+`)
)

// Extract splits a free-text skills string on commas, semicolons and
// newlines, then trims and lowercases each piece. Empty pieces are dropped,
// duplicates are kept and input order is preserved.
func Extract(skills string) []string {
	parts := skillSeparators.Split(skills, -1)
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		token := strings.ToLower(strings.TrimSpace(part))
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// jobRuns returns the word-like runs of a job description, lowercased and
// split into words. Runs shorter than two characters are skipped.
func jobRuns(jobDescription string) [][]string {
	matches := jobRunPattern.FindAllString(jobDescription, -1)
	runs := make([][]string, 0, len(matches))
	for _, run := range matches {
		run = strings.ToLower(strings.TrimSpace(run))
		if len(run) < 2 {
			continue
		}
		if words := splitWords(run); len(words) > 0 {
			runs = append(runs, words)
		}
	}
	return runs
}

// phrasesOf returns every phrase of exactly n consecutive words inside the
// runs. Phrases never cross a run boundary.
func phrasesOf(runs [][]string, n int) map[string]struct{} {
	phrases := make(map[string]struct{})
	for _, words := range runs {
		for i := 0; i+n <= len(words); i++ {
			phrases[strings.Join(words[i:i+n], " ")] = struct{}{}
		}
	}
	return phrases
}

func splitWords(run string) []string {
	fields := strings.Fields(run)
	words := fields[:0]
	for _, f := range fields {
		f = strings.TrimLeft(f, "-")
		f = strings.TrimRight(f, ".-")
		if f != "" {
			words = append(words, f)
		}
	}
	return words
}

// Result is a fit score together with the tokens that produced it
type Result struct {
	Score     int
	Candidate []string
	Matched   []string
}

// Match scores candidate skills against a job description. A candidate
// token of n words counts once per occurrence when it equals some run of n
// consecutive words in the job description.
func Match(candidateSkills, jobDescription string) Result {
	candidate := Extract(candidateSkills)
	runs := jobRuns(jobDescription)

	result := Result{Candidate: candidate, Matched: []string{}}
	if len(candidate) == 0 || len(runs) == 0 {
		return result
	}

	byLength := make(map[int]map[string]struct{})
	for _, skill := range candidate {
		n := len(strings.Fields(skill))
		phrases, ok := byLength[n]
		if !ok {
			phrases = phrasesOf(runs, n)
			byLength[n] = phrases
		}
		if _, ok := phrases[skill]; ok {
			result.Matched = append(result.Matched, skill)
		}
	}

	result.Score = percent(len(result.Matched), len(candidate))
	return result
}

// FitScore returns the percentage of candidate skills present in the job
// description, rounded half away from zero. It is 0 when either side yields
// no tokens.
func FitScore(candidateSkills, jobDescription string) int {
	return Match(candidateSkills, jobDescription).Score
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
