package csp

const cdn = Literal("https://cdn.jsdelivr.net")

// DefaultPolicies — политика по умолчанию (Bootstrap с jsDelivr + nonce для inline).
func DefaultPolicies() Policies {
	return Policies{
		Enforce: MustPolicy(Enforce,
			Directive("default-src", Self),
			Directive("img-src", Self, Literal("data:")),
			Directive("style-src", Self, cdn, Nonce),
			Directive("script-src", Self, cdn, Nonce),
			Directive("font-src", Self, cdn, Literal("data:")),
			Directive("connect-src", Self, cdn),
			Directive("object-src", None),
			Directive("form-action", Self),
			Directive("frame-ancestors", None),
			Directive("base-uri", Self),
		),
	}
}

// LegacyReportOnly — report-only политика для старых страниц: нарушения
// только отправляются на /csp-report, ничего не блокируется.
func LegacyReportOnly() *Policy {
	return MustPolicy(ReportOnly,
		Directive("default-src", Self),
		Directive("script-src", Self, Nonce),
		Directive("style-src", Self, cdn),
		Directive("report-uri", Literal("/csp-report")),
	)
}
