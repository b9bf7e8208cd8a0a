package price

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/thomas-vilte/llmcost/internal/errors"
)

const stdinSource = "-"

// document is one JSON response read from a source.
type document struct {
	label string
	body  map[string]any
	err   error
}

// readSource opens path and decodes every response in it.
func readSource(path string) []document {
	f, err := os.Open(path)
	if err != nil {
		return []document{{label: path, err: errors.ErrReadResponse.WithError(err).WithDetail("%s", path)}}
	}
	defer f.Close()

	return decodeAll(path, f)
}

// dedupeStdin keeps the first "-" of sources and drops the others, since
// stdin can only be consumed once.
func dedupeStdin(sources []string) ([]string, bool) {
	out := make([]string, 0, len(sources))
	seen := false
	for _, src := range sources {
		if src == stdinSource {
			if seen {
				continue
			}
			seen = true
		}
		out = append(out, src)
	}
	return out, seen
}

// decodeAll reads every JSON value in r. Responses may be concatenated or
// one per line. Numbers are kept as json.Number so token counts stay exact.
func decodeAll(label string, r io.Reader) []document {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var docs []document
	for {
		var v any
		err := dec.Decode(&v)
		if err == io.EOF {
			break
		}
		if err != nil {
			docs = append(docs, document{err: errors.ErrReadResponse.WithError(err).WithDetail("%s", label)})
			break
		}

		body, ok := v.(map[string]any)
		if !ok {
			docs = append(docs, document{err: errors.ErrReadResponse.WithDetail("%s: %T is not a JSON object", label, v)})
			continue
		}
		docs = append(docs, document{body: body})
	}

	if len(docs) == 0 {
		return []document{{label: label, err: errors.ErrReadResponse.WithDetail("%s is empty", label)}}
	}

	for i := range docs {
		docs[i].label = label
		if len(docs) > 1 {
			docs[i].label = fmt.Sprintf("%s#%d", label, i+1)
		}
	}
	return docs
}
