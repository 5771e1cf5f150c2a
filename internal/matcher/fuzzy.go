package matcher

// Token-blend scoring for the fuzzy funnel rung. Coverage of the longer
// token list is measured at three leniency levels (exact, exact+abbreviation,
// exact+abbreviation+partial) and blended 0.5/0.3/0.2, each level normalized
// by max(tokenCount1, tokenCount2). Identical names score 1.0.

const (
	weightExactCoverage   = 0.5
	weightAbbrevCoverage  = 0.3
	weightPartialCoverage = 0.2

	minPartialTokenLen = 4
	maxPartialEditDist = 2
	minAcronymLen      = 2
	maxAcronymLen      = 6
)

// TokenBlendScore scores two token lists in [0,1]. Both lists should come
// from normalize.TokenizeKeepInitials so acronyms and initials survive.
func TokenBlendScore(tokens1, tokens2 []string) float64 {
	if len(tokens1) == 0 || len(tokens2) == 0 {
		return 0
	}

	long, short := tokens1, tokens2
	if len(tokens2) > len(tokens1) {
		long, short = tokens2, tokens1
	}
	n := float64(len(long))

	longUsed := make([]bool, len(long))
	shortUsed := make([]bool, len(short))

	exact := matchExact(long, short, longUsed, shortUsed)
	abbrev := matchAbbreviations(long, short, longUsed, shortUsed)
	partial := matchPartial(long, short, longUsed, shortUsed)

	exactCov := float64(exact) / n
	abbrevCov := float64(exact+abbrev) / n
	partialCov := float64(exact+abbrev+partial) / n

	return weightExactCoverage*exactCov +
		weightAbbrevCoverage*abbrevCov +
		weightPartialCoverage*partialCov
}

// matchExact pairs identical tokens greedily. Returns tokens covered on the
// long side.
func matchExact(long, short []string, longUsed, shortUsed []bool) int {
	covered := 0
	for i, lt := range long {
		for j, st := range short {
			if shortUsed[j] || lt != st {
				continue
			}
			longUsed[i] = true
			shortUsed[j] = true
			covered++
			break
		}
	}
	return covered
}

// matchAbbreviations resolves acronym tokens ("GS") against consecutive runs
// of unmatched tokens on the other side ("GORDHANDAS SUNDERDAS"), and runs of
// single-letter initials ("B M") against acronyms or initial letters.
// Returns newly covered tokens on the long side.
func matchAbbreviations(long, short []string, longUsed, shortUsed []bool) int {
	covered := 0
	// Acronym on the short side expanding into a run on the long side.
	for j, st := range short {
		if shortUsed[j] || len(st) < minAcronymLen || len(st) > maxAcronymLen {
			continue
		}
		if run := findInitialRun(st, long, longUsed); run != nil {
			shortUsed[j] = true
			for _, i := range run {
				longUsed[i] = true
			}
			covered += len(run)
		}
	}
	// Acronym on the long side expanding into a run on the short side.
	for i, lt := range long {
		if longUsed[i] || len(lt) < minAcronymLen || len(lt) > maxAcronymLen {
			continue
		}
		if run := findInitialRun(lt, short, shortUsed); run != nil {
			longUsed[i] = true
			for _, j := range run {
				shortUsed[j] = true
			}
			covered++ // only the acronym token sits on the long side
		}
	}
	// Consecutive single-letter initials ("B M") joined into one acronym.
	covered += matchInitialClusters(long, short, longUsed, shortUsed)
	return covered
}

// findInitialRun looks for a consecutive run of unused tokens whose initial
// letters spell the acronym. Returns the token indexes or nil. Single-letter
// runs are rejected: an acronym must expand into at least two words.
func findInitialRun(acronym string, tokens []string, used []bool) []int {
	want := len(acronym)
	if want < 2 {
		return nil
	}
	for start := 0; start+want <= len(tokens); start++ {
		ok := true
		for k := 0; k < want; k++ {
			tok := tokens[start+k]
			if used[start+k] || len(tok) < 2 || tok[0] != acronym[k] {
				ok = false
				break
			}
		}
		if ok {
			run := make([]int, want)
			for k := range run {
				run[k] = start + k
			}
			return run
		}
	}
	return nil
}

// matchInitialClusters joins runs of single-letter tokens ("B M") and matches
// the joined form against an unused acronym token or an initial run on the
// other side. Returns newly covered tokens on the long side.
func matchInitialClusters(long, short []string, longUsed, shortUsed []bool) int {
	covered := 0
	covered += resolveClusters(long, short, longUsed, shortUsed, true)
	covered += resolveClusters(short, long, shortUsed, longUsed, false)
	return covered
}

func resolveClusters(src, dst []string, srcUsed, dstUsed []bool, srcIsLong bool) int {
	covered := 0
	i := 0
	for i < len(src) {
		if srcUsed[i] || len(src[i]) != 1 {
			i++
			continue
		}
		j := i
		joined := ""
		for j < len(src) && !srcUsed[j] && len(src[j]) == 1 {
			joined += src[j]
			j++
		}
		if len(joined) >= 2 {
			dstCovered := 0
			// Joined initials equal an acronym token on the other side.
			for k, dt := range dst {
				if !dstUsed[k] && dt == joined {
					dstUsed[k] = true
					dstCovered = 1
					break
				}
			}
			// Or they expand into a word run on the other side.
			if dstCovered == 0 {
				if run := findInitialRun(joined, dst, dstUsed); run != nil {
					for _, k := range run {
						dstUsed[k] = true
					}
					dstCovered = len(run)
				}
			}
			if dstCovered > 0 {
				for k := i; k < j; k++ {
					srcUsed[k] = true
				}
				if srcIsLong {
					covered += j - i
				} else {
					covered += dstCovered
				}
			}
		}
		i = j
	}
	return covered
}

// matchPartial pairs remaining tokens by containment or small edit distance.
// Only tokens of 4+ characters participate. Returns newly covered tokens on
// the long side.
func matchPartial(long, short []string, longUsed, shortUsed []bool) int {
	covered := 0
	for i, lt := range long {
		if longUsed[i] || len(lt) < minPartialTokenLen {
			continue
		}
		for j, st := range short {
			if shortUsed[j] || len(st) < minPartialTokenLen {
				continue
			}
			if tokensSimilar(lt, st) {
				longUsed[i] = true
				shortUsed[j] = true
				covered++
				break
			}
		}
	}
	return covered
}

func tokensSimilar(a, b string) bool {
	if contains(a, b) || contains(b, a) {
		return true
	}
	return editDistance(a, b) <= maxPartialEditDist
}

func contains(haystack, needle string) bool {
	return len(needle) >= minPartialTokenLen && len(haystack) > len(needle) &&
		indexOf(haystack, needle) >= 0
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

// editDistance computes Levenshtein distance with early exit once the
// distance cannot come back under the partial threshold.
func editDistance(a, b string) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	if len(b)-len(a) > maxPartialEditDist {
		return maxPartialEditDist + 1
	}

	prev := make([]int, len(a)+1)
	curr := make([]int, len(a)+1)
	for i := range prev {
		prev[i] = i
	}

	for j := 1; j <= len(b); j++ {
		curr[0] = j
		rowMin := curr[0]
		for i := 1; i <= len(a); i++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[i] = min3(prev[i]+1, curr[i-1]+1, prev[i-1]+cost)
			if curr[i] < rowMin {
				rowMin = curr[i]
			}
		}
		if rowMin > maxPartialEditDist {
			return maxPartialEditDist + 1
		}
		prev, curr = curr, prev
	}
	return prev[len(a)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
