package api

// Demo payloads served behind the feature gates. The numbers are fixed
// sample data, not computed.

type metric struct {
	Label  string `json:"label"`
	Value  string `json:"value"`
	Detail string `json:"detail"`
}

type report struct {
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Metrics []metric `json:"metrics"`
}

var analysisReport = report{
	Title:   "Business Analysis",
	Summary: "Revenue, growth and usage across your organization.",
	Metrics: []metric{
		{Label: "Total Revenue", Value: "$45,231.89", Detail: "+20.1% from last month"},
		{Label: "Active Users", Value: "2,350", Detail: "+180.1% from last month"},
		{Label: "Growth Rate", Value: "12.5%", Detail: "+19% from last month"},
		{Label: "Conversion Rate", Value: "3.2%", Detail: "+2.1% from last month"},
	},
}

var auditReport = report{
	Title:   "Security Audit",
	Summary: "Security assessment and compliance monitoring for your organization.",
	Metrics: []metric{
		{Label: "Security Score", Value: "92/100", Detail: "Excellent security posture"},
		{Label: "Critical Issues", Value: "2", Detail: "Require immediate attention"},
		{Label: "Resolved Issues", Value: "47", Detail: "Fixed this month"},
		{Label: "Last Scan", Value: "2h ago", Detail: "Next scan in 22h"},
	},
}
