package cache

import (
	"os"
	"regexp"
)

var tokenPattern = regexp.MustCompile(`\$\{(result|env|file):([a-zA-Z0-9\-_.:\\/]+)\}`)
var resultTokenPattern = regexp.MustCompile(`^([\w-]+)(?::([\w-]+))?$`)

// Resolver substitutes ${result:...}, ${env:...}, and ${file:...} tokens
// found in a job's input values. A missing resolution collapses to an
// empty string rather than failing the job (spec's chosen behavior).
type Resolver struct {
	cache *Cache
}

func NewResolver(cache *Cache) *Resolver {
	return &Resolver{cache: cache}
}

// Resolve substitutes every token in value. Non-string inputs are returned
// unchanged, matching the original resolver's pass-through rule.
func (r *Resolver) Resolve(value any) any {
	s, ok := value.(string)
	if !ok {
		return value
	}

	return tokenPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := tokenPattern.FindStringSubmatch(match)
		kind, body := groups[1], groups[2]

		var resolved string
		var found bool
		switch kind {
		case "result":
			resolved, found = r.resolveResult(body)
		case "env":
			resolved, found = os.LookupEnv(body)
		case "file":
			resolved, found = r.resolveFile(body)
		}
		if !found {
			return ""
		}
		return resolved
	})
}

func (r *Resolver) resolveResult(body string) (string, bool) {
	m := resultTokenPattern.FindStringSubmatch(body)
	if m == nil {
		return "", false
	}
	jobID, key := m[1], m[2]
	return r.cache.ReadOutput(jobID, key, 0, false)
}

func (r *Resolver) resolveFile(path string) (string, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(b), true
}
