package retrieval

import (
	"errors"
	"fmt"
	"strings"

	"github.com/meko-christian/inbox-glance/internal/mailbox"
)

// Kind classifies a failed retrieval.
type Kind int

const (
	// KindValidation means the request was unusable; no I/O happened.
	KindValidation Kind = iota + 1
	// KindConnectivity means the server could not be reached.
	KindConnectivity
	// KindSearch means the SEARCH command failed.
	KindSearch
	// KindProtocol means login or folder selection was rejected.
	KindProtocol
	// KindUnexpected covers everything else.
	KindUnexpected
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConnectivity:
		return "connectivity"
	case KindSearch:
		return "search"
	case KindProtocol:
		return "protocol"
	case KindUnexpected:
		return "unexpected"
	}
	return "unknown"
}

// Catalog holds the user-facing failure messages of one language.
type Catalog struct {
	// Prefixes maps each failure kind to its message prefix. The failure
	// detail is appended to every kind but KindValidation.
	Prefixes map[Kind]string
	// InvalidLimit rejects a negative limit.
	InvalidLimit string
	// LimitTooLarge rejects a limit above the configured maximum. It is a
	// format taking the maximum.
	LimitTooLarge string
}

// English is the default catalog.
var English = Catalog{
	Prefixes: map[Kind]string{
		KindValidation:   "enter the email and password",
		KindConnectivity: "cannot connect to IMAP server: ",
		KindSearch:       "error while searching: ",
		KindProtocol:     "IMAP Error: ",
		KindUnexpected:   "unexpected error: ",
	},
	InvalidLimit:  "limit must be a positive number",
	LimitTooLarge: "limit must not exceed %d",
}

// Arabic carries the messages shown to Arabic-speaking users of the web form.
var Arabic = Catalog{
	Prefixes: map[Kind]string{
		KindValidation:   "ادخل البريد و كلمة المرور",
		KindConnectivity: "لا يمكن الاتصال بخادم IMAP: ",
		KindSearch:       "خطأ أثناء البحث: ",
		KindProtocol:     "IMAP Error: ",
		KindUnexpected:   "خطأ غير متوقع: ",
	},
	InvalidLimit:  "يجب أن يكون عدد الرسائل رقماً موجباً",
	LimitTooLarge: "يجب ألا يتجاوز عدد الرسائل %d",
}

// CatalogFor returns the catalog for a locale tag, English by default.
func CatalogFor(locale string) Catalog {
	switch strings.ToLower(locale) {
	case "ar":
		return Arabic
	default:
		return English
	}
}

// Message formats a localized failure message.
func (c Catalog) Message(kind Kind, detail string) string {
	prefix, ok := c.Prefixes[kind]
	if !ok {
		prefix = English.Prefixes[kind]
	}
	if kind == KindValidation {
		return prefix
	}
	return prefix + detail
}

// Rejection formats the message for a request that failed validation.
func (c Catalog) Rejection(err error, maxLimit int) string {
	switch {
	case errors.Is(err, errInvalidLimit):
		return orEnglish(c.InvalidLimit, English.InvalidLimit)
	case errors.Is(err, errLimitTooLarge):
		return fmt.Sprintf(orEnglish(c.LimitTooLarge, English.LimitTooLarge), maxLimit)
	}
	return c.Message(KindValidation, "")
}

func orEnglish(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// classify maps a session error to a failure kind.
func classify(err error) Kind {
	switch {
	case errors.Is(err, mailbox.ErrUnreachable):
		return KindConnectivity
	case errors.Is(err, mailbox.ErrSearch):
		return KindSearch
	case errors.Is(err, mailbox.ErrLogin), errors.Is(err, mailbox.ErrSelect):
		return KindProtocol
	}
	return KindUnexpected
}
