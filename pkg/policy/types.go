package policy

import "strings"

// Form field names shared by the wizard definitions, the web views, and the
// terminal prompts.
const (
	FieldCompanyName  = "companyName"
	FieldType         = "type"
	FieldWebsiteURL   = "websiteUrl"
	FieldEmail        = "email"
	FieldCountry      = "country"
	FieldPersonalData = "data"
	FieldThirdParties = "services"
	FieldCookies      = "cookies"
	FieldPayments     = "payments"
)

// ServiceType is the kind of service the policy covers.
type ServiceType string

const (
	ServiceWebsite ServiceType = "website"
	ServiceApp     ServiceType = "app"
)

// Label is the noun used in the intro sentence. Anything other than an app is
// described as a website.
func (t ServiceType) Label() string {
	if t == ServiceApp {
		return "mobile application"
	}
	return "website"
}

// FormState is the typed view of the wizard answers.
type FormState struct {
	CompanyName  string
	Type         ServiceType
	WebsiteURL   string
	Email        string
	Country      string
	PersonalData []string
	ThirdParties []string
	Cookies      bool
	Payments     bool
}

// Target is what the intro says the service is "located at": the website URL
// for websites that provided one, otherwise the company name.
func (s FormState) Target() string {
	if s.Type != ServiceApp && s.WebsiteURL != "" {
		return s.WebsiteURL
	}
	return s.CompanyName
}

// FromValues builds a FormState from raw form values. Set-valued fields keep
// the order in which values were recorded; yes/no flags are true only for
// "yes".
func FromValues(values map[string][]string) FormState {
	first := func(name string) string {
		if v := values[name]; len(v) > 0 {
			return v[0]
		}
		return ""
	}
	return FormState{
		CompanyName:  first(FieldCompanyName),
		Type:         ServiceType(first(FieldType)),
		WebsiteURL:   first(FieldWebsiteURL),
		Email:        first(FieldEmail),
		Country:      first(FieldCountry),
		PersonalData: nonEmpty(values[FieldPersonalData]),
		ThirdParties: nonEmpty(values[FieldThirdParties]),
		Cookies:      isYes(first(FieldCookies)),
		Payments:     isYes(first(FieldPayments)),
	}
}

func isYes(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), "yes")
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
