package export

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// ParseError marks a fatal problem with the archive itself: a missing file or
// malformed JSON. The whole run aborts on it; the read is side-effect free so
// retrying the full import is always safe.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing archive %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ReadArchive stream-parses the conversations export at path and invokes fn
// for each conversation record in file order. The archive is either a
// top-level JSON array or an object with a "conversations" array field; it is
// never held in memory whole. Returns the number of records seen.
//
// A non-nil error from fn aborts the walk and is returned as-is; per-record
// problems that should not abort belong inside fn.
func ReadArchive(ctx context.Context, path string, fn func(rec Conversation) error) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, &ParseError{Path: path, Err: err}
	}
	defer f.Close()

	// Exports are typically one huge line; use a larger buffer than default.
	dec := json.NewDecoder(bufio.NewReaderSize(f, 1<<20))

	tok, err := dec.Token()
	if err != nil {
		return 0, &ParseError{Path: path, Err: fmt.Errorf("reading first token: %w", err)}
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return 0, &ParseError{Path: path, Err: fmt.Errorf("expected JSON array or object, got %T", tok)}
	}

	switch delim {
	case '[':
		return readArray(ctx, path, dec, fn)
	case '{':
		return readWrappedArray(ctx, path, dec, fn)
	default:
		return 0, &ParseError{Path: path, Err: fmt.Errorf("unexpected delimiter %v", delim)}
	}
}

func readArray(ctx context.Context, path string, dec *json.Decoder, fn func(rec Conversation) error) (int, error) {
	count := 0
	for dec.More() {
		select {
		case <-ctx.Done():
			return count, ctx.Err()
		default:
		}

		var rec Conversation
		if err := dec.Decode(&rec); err != nil {
			return count, &ParseError{Path: path, Err: fmt.Errorf("decoding record %d: %w", count, err)}
		}
		count++
		if err := fn(rec); err != nil {
			return count, err
		}
	}
	return count, nil
}

func readWrappedArray(ctx context.Context, path string, dec *json.Decoder, fn func(rec Conversation) error) (int, error) {
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return 0, &ParseError{Path: path, Err: fmt.Errorf("reading object key: %w", err)}
		}
		key, ok := keyTok.(string)
		if !ok {
			return 0, &ParseError{Path: path, Err: fmt.Errorf("expected string key, got %T", keyTok)}
		}

		if key != "conversations" {
			// Skip the value of any other field.
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return 0, &ParseError{Path: path, Err: fmt.Errorf("skipping field %q: %w", key, err)}
			}
			continue
		}

		openTok, err := dec.Token()
		if err != nil {
			return 0, &ParseError{Path: path, Err: fmt.Errorf("reading conversations array: %w", err)}
		}
		if d, ok := openTok.(json.Delim); !ok || d != '[' {
			return 0, &ParseError{Path: path, Err: fmt.Errorf("conversations field is not an array")}
		}
		return readArray(ctx, path, dec, fn)
	}
	return 0, &ParseError{Path: path, Err: fmt.Errorf("no conversations array found")}
}
