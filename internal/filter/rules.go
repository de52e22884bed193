package filter

// Builtin returns the baseline ruleset every deployment starts from.
// Ordering matters: instruction-override phrases first, then destructive
// commands, then PII shapes, then control tokens. First match wins.
func Builtin() []Spec {
	return []Spec{
		{
			ID:      "instruction-override",
			Pattern: `ignore (all )?previous( instructions)?|disregard all|revoke all limitations`,
			Reason:  "instruction override attempt",
		},
		{
			ID:      "policy-bypass",
			Pattern: `\b(bypass|override)\b.{0,40}\b(filter|polic\w+|safety|restriction\w*|rule\w*)\b`,
			Reason:  "policy bypass attempt",
		},
		{
			ID:      "destructive-command",
			Pattern: `delete all data|drop\s+(table|database)\b|shutdown system|rm\s+-rf\s+/`,
			Reason:  "destructive command",
		},
		{
			ID:      "admin-credential-probe",
			Pattern: `password\b.*\badmin|admin\b.*\bpassword`,
			Reason:  "admin credential probing",
		},
		{
			ID:      "pii-ssn",
			Pattern: `\b\d{3}-\d{2}-\d{4}\b`,
			Reason:  "SSN-shaped number",
		},
		{
			ID:      "pii-card",
			Pattern: `\b(?:\d[ -]?){13,16}\b`,
			Reason:  "payment-card-shaped number",
		},
		{
			ID:      "pii-email",
			Pattern: `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`,
			Reason:  "email address",
		},
		{
			ID:      "control-token",
			Pattern: `<\|system\|>|<script>`,
			Reason:  "disallowed control token",
		},
	}
}
