package tinydns

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/zonecraft/macrotine/internal/macrotine"
)

// Result is the output of parsing a batch of tinydns input: the decoded,
// sorted and deduplicated records plus any warnings collected along the way.
type Result struct {
	Records  []TinyRecord
	Warnings []string
}

// ParseLine dispatches a single non-empty line by its first byte and returns
// the records it expands to. An unrecognized prefix yields a warning and no
// records, never an error. A recognized-but-malformed line returns an error;
// the caller decides whether that aborts the batch.
func ParseLine(line string) (recs []TinyRecord, warning string, err error) {
	if line == "" {
		return nil, "", nil
	}
	prefix := line[0]
	data := line[1:]

	switch prefix {
	case '+':
		recs, err = parseSimple(A, data)
	case '^':
		recs, err = parseSimple(PTR, data)
	case 'C':
		recs, err = parseSimple(CNAME, data)
	case '\'':
		recs, err = parseTXT(data)
	case '@':
		recs, err = parseMX(data)
	case 'Z':
		recs, err = parseSOA(data)
	case '.':
		recs, err = parseANSSOA(data)
	case '&':
		recs, err = parseANS(data)
	case '=':
		recs, err = parseAPTR(data)
	case '-', '#':
		return nil, "", nil
	default:
		return nil, fmt.Sprintf("unsupported prefix %q on line %q", prefix, line), nil
	}
	return recs, "", err
}

// ParseReader decodes every line from r, accumulating records and warnings.
// It never aborts mid-stream on a malformed line; instead it sets a failure
// flag and returns a non-nil error once the whole stream has been consumed,
// per the "individual record errors set a per-run error flag" rule. Only an
// I/O error reading r is returned immediately.
func ParseReader(r io.Reader, source string, log *logrus.Logger) (*Result, error) {
	scanner := bufio.NewScanner(r)
	var records []TinyRecord
	var warnings []string
	hadRecordError := false

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		recs, warn, err := ParseLine(line)
		if warn != "" {
			warnings = append(warnings, fmt.Sprintf("%s:%d: %s", source, lineNum, warn))
			if log != nil {
				log.Warnf("%s:%d: %s", source, lineNum, warn)
			}
		}
		if err != nil {
			hadRecordError = true
			warnings = append(warnings, fmt.Sprintf("%s:%d: %v", source, lineNum, err))
			if log != nil {
				log.Warnf("%s:%d: %v", source, lineNum, err)
			}
			continue
		}
		records = append(records, recs...)
	}
	if err := scanner.Err(); err != nil {
		return nil, &macrotine.IOError{Op: fmt.Sprintf("reading %s", source), Err: err}
	}

	if hadRecordError {
		return &Result{Records: records, Warnings: warnings}, fmt.Errorf("one or more records in %s failed to parse", source)
	}

	return &Result{Records: records, Warnings: warnings}, nil
}

// ParseFile reads a single .tiny file, then sorts and deduplicates its
// records and reports duplicate (rtype, fqdn, target) triples.
func ParseFile(path string, log *logrus.Logger) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &macrotine.IOError{Op: fmt.Sprintf("opening %s", path), Err: err}
	}
	defer f.Close()

	res, err := ParseReader(f, path, log)
	if res != nil {
		finalizeResult(res)
	}
	return res, err
}

// ParseDir reads every *.tiny file in dir, merges their records, then sorts,
// deduplicates and reports cross-file duplicates exactly as a single-file
// parse would.
func ParseDir(dir string, log *logrus.Logger) (*Result, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.tiny"))
	if err != nil {
		return nil, &macrotine.IOError{Op: fmt.Sprintf("globbing %s", dir), Err: err}
	}
	sort.Strings(matches)

	merged := &Result{}
	hadError := false
	for _, path := range matches {
		f, err := os.Open(path)
		if err != nil {
			return nil, &macrotine.IOError{Op: fmt.Sprintf("opening %s", path), Err: err}
		}
		res, perr := ParseReader(f, path, log)
		f.Close()
		if res != nil {
			merged.Records = append(merged.Records, res.Records...)
			merged.Warnings = append(merged.Warnings, res.Warnings...)
		}
		if perr != nil {
			if _, ok := perr.(*macrotine.IOError); ok {
				return nil, perr
			}
			hadError = true
		}
	}

	finalizeResult(merged)
	if hadError {
		return merged, fmt.Errorf("one or more records under %s failed to parse", dir)
	}
	return merged, nil
}

// finalizeResult reports duplicate (rtype, fqdn, target) triples, then sorts
// by FQDN and removes consecutive exact duplicates (TTL ignored).
func finalizeResult(res *Result) {
	seen := make(map[string]int, len(res.Records))
	for _, r := range res.Records {
		seen[dupKey(r)]++
	}
	for k, n := range seen {
		if n > 1 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("duplicate record found: %s (x%d)", k, n))
		}
	}

	sort.SliceStable(res.Records, func(i, j int) bool { return Less(res.Records[i], res.Records[j]) })

	deduped := res.Records[:0]
	for i, r := range res.Records {
		if i > 0 && r.Equal(res.Records[len(deduped)-1]) {
			continue
		}
		deduped = append(deduped, r)
	}
	res.Records = deduped
}
