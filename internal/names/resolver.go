package names

import "sort"

// entry tracks one distinct person: every raw spelling seen for them, the
// derived name tokens, and the currently selected display string.
type entry struct {
	display      string
	variants     map[string]struct{} // normalized forms, incl. reversed
	rawCounts    map[string]int      // sanitized raw spelling -> occurrences
	rawOrder     map[string]int      // registration order, tie-break of last resort
	firstToken   string
	surnameToken string
	surnameInit  string
}

// Resolver clusters observed player-name spellings into per-person entries.
// Build it once from the full set of names in the dataset, then call
// Canonicalize for individual lookups.
type Resolver struct {
	entries     []*entry
	byVariant   map[string]*entry
	bySignature map[string]*entry
	byFirstInit map[string]*entry
	bySurname   map[string][]*entry
	byFirst     map[string][]*entry
	firstPos    map[string]int
	lastPos     map[string]int
	seq         int
}

// NewResolver returns an empty resolver. Canonicalize degrades to echoing
// sanitized input until Build has been called.
func NewResolver() *Resolver {
	r := &Resolver{}
	r.reset()
	return r
}

func (r *Resolver) reset() {
	r.entries = nil
	r.byVariant = make(map[string]*entry)
	r.bySignature = make(map[string]*entry)
	r.byFirstInit = make(map[string]*entry)
	r.bySurname = make(map[string][]*entry)
	r.byFirst = make(map[string][]*entry)
	r.firstPos = make(map[string]int)
	r.lastPos = make(map[string]int)
	r.seq = 0
}

// Build resets all state and re-derives person entries from the given names.
// Placeholders are dropped entirely.
func (r *Resolver) Build(names []string) {
	r.reset()
	for _, raw := range names {
		r.register(raw)
	}
}

// Canonicalize returns the best-known canonical display name for a raw
// spelling. Unknown names come back sanitized but otherwise untouched; the
// second return value is false only for placeholder inputs.
func (r *Resolver) Canonicalize(name string) (string, bool) {
	if IsPlaceholder(name) {
		return "", false
	}
	sanitized := Sanitize(name)
	norm := Normalize(sanitized)
	if display, ok := manualOverrides[norm]; ok {
		return display, true
	}
	if e := r.find(norm, tokens(norm)); e != nil && e.display != "" {
		return e.display, true
	}
	return sanitized, true
}

func (r *Resolver) register(raw string) {
	if IsPlaceholder(raw) {
		return
	}
	sanitized := Sanitize(raw)
	norm := Normalize(sanitized)
	toks := tokens(norm)
	if len(toks) >= 2 {
		r.firstPos[toks[0]]++
		r.lastPos[toks[len(toks)-1]]++
	}

	e := r.find(norm, toks)
	if e == nil {
		e = &entry{
			variants:  make(map[string]struct{}),
			rawCounts: make(map[string]int),
			rawOrder:  make(map[string]int),
		}
		r.entries = append(r.entries, e)
	}
	r.absorb(e, sanitized, norm, toks)
}

// find locates the entry a normalized name belongs to, trying each merge
// heuristic in priority order. Returns nil when no rule matches.
func (r *Resolver) find(norm string, toks []string) *entry {
	if len(toks) == 0 {
		return nil
	}

	// 1. Known variant, including token-order-reversed forms.
	if e, ok := r.byVariant[norm]; ok {
		return e
	}

	// 2. Sorted-token signature (reorderings with 2+ tokens).
	if len(toks) >= 2 {
		if e, ok := r.bySignature[sortedSignature(toks)]; ok {
			return e
		}
	}

	// 3. First name plus surname initials ("Мария Т." vs "Мария Тимохова").
	// Only fires when one of the two sides is an abbreviation; otherwise two
	// full surnames sharing an initial would collapse.
	if len(toks) == 2 {
		last := toks[1]
		if e, ok := r.byFirstInit[toks[0]+"\x00"+initialsOf(last)]; ok {
			if isInitialsToken(last) || isInitialsToken(e.surnameToken) {
				return e
			}
		}
	}

	// 4. Bare surname or bare first name, when unambiguous.
	if len(toks) == 1 {
		if candidates := r.bySurname[toks[0]]; len(candidates) == 1 {
			return candidates[0]
		}
		if candidates := r.byFirst[toks[0]]; len(candidates) == 1 {
			return candidates[0]
		}
		return nil
	}

	// 5. Same surname and a single-character variation of a known variant.
	for _, e := range r.bySurname[toks[len(toks)-1]] {
		for variant := range e.variants {
			if isSingleCharVariation(norm, variant) {
				return e
			}
		}
	}

	return nil
}

func (r *Resolver) absorb(e *entry, sanitized, norm string, toks []string) {
	e.rawCounts[sanitized]++
	if _, seen := e.rawOrder[sanitized]; !seen {
		e.rawOrder[sanitized] = r.seq
		r.seq++
	}

	r.addVariant(e, norm)
	if len(toks) >= 2 {
		r.addVariant(e, reversedForm(toks))

		if _, ok := r.bySignature[sortedSignature(toks)]; !ok {
			r.bySignature[sortedSignature(toks)] = e
		}

		first, last := toks[0], toks[len(toks)-1]
		key := first + "\x00" + initialsOf(last)
		if _, ok := r.byFirstInit[key]; !ok {
			r.byFirstInit[key] = e
		}
		r.bySurname[last] = appendEntry(r.bySurname[last], e)
		r.byFirst[first] = appendEntry(r.byFirst[first], e)

		// Prefer a full surname over a previously stored abbreviation.
		if e.surnameInit == "" || (isInitialsToken(e.surnameToken) && !isInitialsToken(last)) {
			e.firstToken = first
			e.surnameToken = last
			e.surnameInit = initialsOf(last)
		}
	}

	e.display = r.selectDisplay(e)
}

func (r *Resolver) addVariant(e *entry, norm string) {
	e.variants[norm] = struct{}{}
	if _, ok := r.byVariant[norm]; !ok {
		r.byVariant[norm] = e
	}
}

func appendEntry(list []*entry, e *entry) []*entry {
	for _, existing := range list {
		if existing == e {
			return list
		}
	}
	return append(list, e)
}

// selectDisplay picks the canonical spelling among an entry's raw variants:
// highest occurrence count, then manual-override targets, then token-order
// plausibility across the corpus, then more tokens, then the longer string,
// then first registered.
func (r *Resolver) selectDisplay(e *entry) string {
	candidates := make([]string, 0, len(e.rawCounts))
	for raw := range e.rawCounts {
		candidates = append(candidates, raw)
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if ca, cb := e.rawCounts[a], e.rawCounts[b]; ca != cb {
			return ca > cb
		}
		_, aTarget := overrideTargets[a]
		_, bTarget := overrideTargets[b]
		if aTarget != bTarget {
			return aTarget
		}
		if pa, pb := r.plausibility(a), r.plausibility(b); pa != pb {
			return pa > pb
		}
		aToks, bToks := tokens(Normalize(a)), tokens(Normalize(b))
		if len(aToks) != len(bToks) {
			return len(aToks) > len(bToks)
		}
		if la, lb := len([]rune(a)), len([]rune(b)); la != lb {
			return la > lb
		}
		return e.rawOrder[a] < e.rawOrder[b]
	})
	if len(candidates) == 0 {
		return ""
	}
	return candidates[0]
}

// plausibility scores how natural a candidate's token order is: its first
// token should be seen as a first token across the corpus more often than as
// a last token, and vice versa for its last token.
func (r *Resolver) plausibility(raw string) int {
	toks := tokens(Normalize(raw))
	if len(toks) < 2 {
		return 0
	}
	score := 0
	first, last := toks[0], toks[len(toks)-1]
	if r.firstPos[first] > r.lastPos[first] {
		score++
	}
	if r.lastPos[last] > r.firstPos[last] {
		score++
	}
	return score
}
