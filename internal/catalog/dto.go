package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	domcat "github.com/kailas-cloud/assessrec/internal/domain/catalog"
)

// recordDTO is the on-disk shape of one catalog entry. The scraper emits
// "Yes"/"No" flags, numeric strings and single-string test types, so the
// flexible field types below accept both forms.
type recordDTO struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	URL            string      `json:"url"`
	TestType       flexStrings `json:"test_type"`
	Duration       flexInt     `json:"duration"`
	Remote         *flexBool   `json:"remote_testing_support,omitempty"`
	RemoteLegacy   *flexBool   `json:"remote_support,omitempty"`
	Adaptive       *flexBool   `json:"adaptive_irt_support,omitempty"`
	AdaptiveLegacy *flexBool   `json:"adaptive_support,omitempty"`
	JobLevels      flexStrings `json:"job_levels"`
}

func (d recordDTO) toDomain() (domcat.Record, error) {
	id := d.ID
	if strings.TrimSpace(id) == "" {
		id = d.URL
	}
	return domcat.New(domcat.Fields{
		ID:              id,
		Name:            d.Name,
		Description:     d.Description,
		URL:             d.URL,
		TestTypes:       []string(d.TestType),
		DurationMinutes: int(d.Duration),
		RemoteTesting:   firstBool(d.Remote, d.RemoteLegacy),
		AdaptiveIRT:     firstBool(d.Adaptive, d.AdaptiveLegacy),
		JobLevels:       []string(d.JobLevels),
	})
}

func fromDomain(r domcat.Record) recordDTO {
	remote := flexBool(r.RemoteTesting())
	adaptive := flexBool(r.AdaptiveIRT())
	return recordDTO{
		ID:          r.ID(),
		Name:        r.Name(),
		Description: r.Description(),
		URL:         r.URL(),
		TestType:    r.TestTypes(),
		Duration:    flexInt(r.DurationMinutes()),
		Remote:      &remote,
		Adaptive:    &adaptive,
		JobLevels:   r.JobLevels(),
	}
}

func firstBool(vals ...*flexBool) bool {
	for _, v := range vals {
		if v != nil {
			return bool(*v)
		}
	}
	return false
}

// flexBool accepts true/false, "Yes"/"No", "true"/"false", 0/1.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("flag: %w", err)
	}
	switch val := v.(type) {
	case bool:
		*b = flexBool(val)
	case float64:
		*b = val != 0
	case string:
		lower := strings.ToLower(strings.TrimSpace(val))
		*b = lower == "yes" || lower == "true" || lower == "y" || lower == "1"
	case nil:
		*b = false
	default:
		return fmt.Errorf("flag: unsupported value %s", string(data))
	}
	return nil
}

// flexInt accepts 30, "30", "30 minutes" and "" (zero).
type flexInt int

func (n *flexInt) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	switch val := v.(type) {
	case float64:
		*n = flexInt(val)
	case string:
		digits := leadingDigits(strings.TrimSpace(val))
		if digits == "" {
			*n = 0
			return nil
		}
		i, err := strconv.Atoi(digits)
		if err != nil {
			return fmt.Errorf("duration %q: %w", val, err)
		}
		*n = flexInt(i)
	case nil:
		*n = 0
	default:
		return fmt.Errorf("duration: unsupported value %s", string(data))
	}
	return nil
}

func leadingDigits(s string) string {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}

// flexStrings accepts a JSON array of strings or a single comma-separated string.
type flexStrings []string

func (s *flexStrings) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*s = list
		return nil
	}
	var single *string
	if err := json.Unmarshal(data, &single); err != nil {
		return fmt.Errorf("expected string or string array: %w", err)
	}
	if single == nil {
		*s = nil
		return nil
	}
	*s = strings.Split(*single, ",")
	return nil
}
