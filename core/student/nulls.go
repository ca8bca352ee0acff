package student

import (
	"strings"

	"github.com/volatiletech/null/v8"
)

func nullable(s string) null.String {
	s = strings.TrimSpace(s)
	return null.NewString(s, s != "")
}
