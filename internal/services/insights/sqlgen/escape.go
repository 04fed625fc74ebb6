package sqlgen

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"insights/internal/services/insights/domain"
)

var (
	// identPattern guards table and column names before they reach SQL text
	identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

	// aliasPattern guards output column names, these carry metric names and group labels
	aliasPattern = regexp.MustCompile(`^[\p{L}\p{N} _$%|.,:/@+#=<>!?()*&~^\[\]{}-]{1,128}$`)

	quoteReplacer = strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\x00", `\0`)
	likeReplacer  = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
)

// Quote renders s as a single quoted clickhouse string literal
// every inline string on the clickhouse path goes through here
func Quote(s string) string {
	return "'" + quoteReplacer.Replace(s) + "'"
}

// Number renders f as a clickhouse numeric literal
func Number(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// DateTime renders t as a nanosecond clickhouse DateTime64 in UTC, exact against any column precision
func DateTime(t time.Time) string {
	return "toDateTime64(" + Quote(t.UTC().Format("2006-01-02 15:04:05.000000000")) + ", 9, 'UTC')"
}

// EscapeLike neutralises LIKE wildcards so user text matches literally
func EscapeLike(s string) string { return likeReplacer.Replace(s) }

// checkIdent rejects anything that is not a plain identifier
func checkIdent(name string) error {
	if !identPattern.MatchString(name) {
		return domain.InvalidDescriptorf("identifier", "identifier %q is not allowed", name)
	}
	return nil
}

// checkAlias rejects output names that could break out of a quoted identifier
func checkAlias(field, name string) error {
	// labels are compared byte for byte when the shaper decodes them
	if !norm.NFC.IsNormalString(name) {
		return domain.InvalidDescriptorf(field, "name %q is not NFC normalized", name)
	}
	if !aliasPattern.MatchString(name) {
		return domain.InvalidDescriptorf(field, "name %q contains characters that are not allowed", name)
	}
	return nil
}
