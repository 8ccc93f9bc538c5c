package verifier

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/badoux/checkmail"
)

const (
	maxLocalPartLength = 64
	maxDomainLength    = 255
)

// addressPattern requires domain labels to start and end with an
// alphanumeric character and the final label to be at least two letters.
var addressPattern = regexp.MustCompile(
	`^[a-zA-Z0-9._%+\-]+@(?:[a-zA-Z0-9](?:[a-zA-Z0-9\-]*[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}$`)

// validateSyntax checks structural well-formedness of an address. It
// performs no network I/O; a non-nil error carries the diagnostic note
// for the result's detail list.
func validateSyntax(email string) error {
	if email == "" {
		return fmt.Errorf("address is empty")
	}

	at := strings.Count(email, "@")
	if at == 0 {
		return fmt.Errorf("missing @ symbol")
	}
	if at > 1 {
		return fmt.Errorf("multiple @ symbols")
	}

	parts := strings.SplitN(email, "@", 2)
	local, domain := parts[0], parts[1]

	switch {
	case local == "":
		return fmt.Errorf("local part is empty")
	case len(local) > maxLocalPartLength:
		return fmt.Errorf("local part exceeds %d characters", maxLocalPartLength)
	case strings.HasPrefix(local, "."), strings.HasSuffix(local, "."):
		return fmt.Errorf("local part starts or ends with a dot")
	case strings.Contains(local, ".."):
		return fmt.Errorf("local part contains consecutive dots")
	}

	switch {
	case domain == "":
		return fmt.Errorf("domain part is empty")
	case len(domain) > maxDomainLength:
		return fmt.Errorf("domain part exceeds %d characters", maxDomainLength)
	}

	if !addressPattern.MatchString(email) {
		return fmt.Errorf("address does not match the expected format")
	}

	if err := checkmail.ValidateFormat(email); err != nil {
		return fmt.Errorf("address does not match the expected format")
	}

	return nil
}

// splitAddress returns the local part and domain of an address that
// already passed validateSyntax.
func splitAddress(email string) (local, domain string) {
	parts := strings.SplitN(email, "@", 2)
	if len(parts) != 2 {
		return email, ""
	}
	return parts[0], parts[1]
}
