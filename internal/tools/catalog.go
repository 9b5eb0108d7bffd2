package tools

import "github.com/valyala/fasthttp"

// Catalog returns the tool table exposed to MCP clients.
func Catalog() []Definition {
	return []Definition{
		{
			Name:        "whoami",
			Description: "Show the employee and company the current session acts as.",
			Method:      fasthttp.MethodGet,
			Path:        "/token/session/>whoAmI",
			Params: []Param{
				str("fields", "query", "Comma-separated list of fields to include."),
			},
		},

		// Projects and activities.
		{
			Name:        "search_projects",
			Description: "Search projects by name, number, customer or project manager.",
			Method:      fasthttp.MethodGet,
			Path:        "/project",
			Params: withPaging(
				str("name", "query", "Containing name."),
				str("number", "query", "Project number."),
				boolean("isClosed", "query", "Only closed (true) or open (false) projects."),
				integer("customerId", "query", "Customer ID."),
				integer("projectManagerId", "query", "Project manager employee ID."),
			),
		},
		{
			Name:        "get_project",
			Description: "Get a project by ID.",
			Method:      fasthttp.MethodGet,
			Path:        "/project/{id}",
			Params: []Param{
				required(integer("id", "path", "Project ID.")),
				str("fields", "query", "Comma-separated list of fields to include."),
			},
		},
		{
			Name:        "search_activities",
			Description: "Search activities.",
			Method:      fasthttp.MethodGet,
			Path:        "/activity",
			Params: withPaging(
				str("name", "query", "Containing name."),
				str("number", "query", "Activity number."),
				boolean("isProjectActivity", "query", "Only project activities."),
				boolean("isGeneral", "query", "Only general activities."),
			),
		},
		{
			Name:        "list_timesheet_activities",
			Description: "List activities hours can be logged on for a project.",
			Method:      fasthttp.MethodGet,
			Path:        "/activity/>forTimeSheet",
			Params: withPaging(
				required(integer("projectId", "query", "Project ID.")),
				integer("employeeId", "query", "Employee ID. Defaults to the session employee."),
				str("date", "query", "Date (YYYY-MM-DD). Defaults to today."),
			),
		},

		// Employees and customers.
		{
			Name:        "search_employees",
			Description: "Search employees by name or email.",
			Method:      fasthttp.MethodGet,
			Path:        "/employee",
			Params: withPaging(
				str("firstName", "query", "Containing first name."),
				str("lastName", "query", "Containing last name."),
				str("email", "query", "Containing email."),
				boolean("includeContacts", "query", "Include contact persons."),
			),
		},
		{
			Name:        "get_employee",
			Description: "Get an employee by ID.",
			Method:      fasthttp.MethodGet,
			Path:        "/employee/{id}",
			Params: []Param{
				required(integer("id", "path", "Employee ID.")),
				str("fields", "query", "Comma-separated list of fields to include."),
			},
		},
		{
			Name:        "search_customers",
			Description: "Search customers.",
			Method:      fasthttp.MethodGet,
			Path:        "/customer",
			Params: withPaging(
				str("customerName", "query", "Containing name."),
				str("organizationNumber", "query", "Organization number."),
				str("email", "query", "Email address."),
				boolean("isInactive", "query", "Only inactive (true) or active (false) customers."),
			),
		},

		// Timesheet.
		{
			Name:        "search_timesheet_entries",
			Description: "Find timesheet entries in a date range.",
			Method:      fasthttp.MethodGet,
			Path:        "/timesheet/entry",
			Params: withPaging(
				required(str("dateFrom", "query", "From and including (YYYY-MM-DD).")),
				required(str("dateTo", "query", "To and excluding (YYYY-MM-DD).")),
				integer("employeeId", "query", "Employee ID."),
				integer("projectId", "query", "Project ID."),
				integer("activityId", "query", "Activity ID."),
				str("comment", "query", "Containing comment."),
			),
		},
		{
			Name:        "get_timesheet_entry",
			Description: "Get a timesheet entry by ID.",
			Method:      fasthttp.MethodGet,
			Path:        "/timesheet/entry/{id}",
			Params: []Param{
				required(integer("id", "path", "Timesheet entry ID.")),
				str("fields", "query", "Comma-separated list of fields to include."),
			},
		},
		{
			Name:        "create_timesheet_entry",
			Description: "Log hours. Only one entry per employee, date, activity and project is allowed.",
			Method:      fasthttp.MethodPost,
			Path:        "/timesheet/entry",
			Params: []Param{
				required(as("activity.id", integer("activityId", "body", "Activity ID."))),
				required(str("date", "body", "Date (YYYY-MM-DD).")),
				required(number("hours", "body", "Hours worked.")),
				as("employee.id", integer("employeeId", "body", "Employee ID. Defaults to the session employee.")),
				as("project.id", integer("projectId", "body", "Project ID.")),
				str("comment", "body", "Comment."),
			},
		},
		{
			Name:        "update_timesheet_entry",
			Description: "Update a timesheet entry. Fields left out are unchanged.",
			Method:      fasthttp.MethodPut,
			Path:        "/timesheet/entry/{id}",
			Params: []Param{
				required(integer("id", "path", "Timesheet entry ID.")),
				integer("version", "body", "Current version, for optimistic locking."),
				as("activity.id", integer("activityId", "body", "Activity ID.")),
				as("project.id", integer("projectId", "body", "Project ID.")),
				str("date", "body", "Date (YYYY-MM-DD)."),
				number("hours", "body", "Hours worked."),
				str("comment", "body", "Comment."),
			},
		},
		{
			Name:        "delete_timesheet_entry",
			Description: "Delete a timesheet entry.",
			Method:      fasthttp.MethodDelete,
			Path:        "/timesheet/entry/{id}",
			Params: []Param{
				required(integer("id", "path", "Timesheet entry ID.")),
				integer("version", "query", "Current version, for optimistic locking."),
			},
		},
		{
			Name:        "timesheet_total_hours",
			Description: "Sum hours logged by an employee in a period.",
			Method:      fasthttp.MethodGet,
			Path:        "/timesheet/entry/>totalHours",
			Params: []Param{
				integer("employeeId", "query", "Employee ID. Defaults to the session employee."),
				str("startDate", "query", "From and including (YYYY-MM-DD)."),
				str("endDate", "query", "To and excluding (YYYY-MM-DD)."),
			},
		},

		// Outgoing invoices.
		{
			Name:        "search_invoices",
			Description: "Find customer invoices in a date range.",
			Method:      fasthttp.MethodGet,
			Path:        "/invoice",
			Params: withPaging(
				required(str("invoiceDateFrom", "query", "From and including (YYYY-MM-DD).")),
				required(str("invoiceDateTo", "query", "To and excluding (YYYY-MM-DD).")),
				str("invoiceNumber", "query", "Invoice number."),
				integer("customerId", "query", "Customer ID."),
			),
		},
		{
			Name:        "get_invoice",
			Description: "Get a customer invoice by ID.",
			Method:      fasthttp.MethodGet,
			Path:        "/invoice/{id}",
			Params: []Param{
				required(integer("id", "path", "Invoice ID.")),
				str("fields", "query", "Comma-separated list of fields to include."),
			},
		},

		// Supplier invoices.
		{
			Name:        "search_supplier_invoices",
			Description: "Find supplier invoices in a date range.",
			Method:      fasthttp.MethodGet,
			Path:        "/supplierInvoice",
			Params: withPaging(
				required(str("invoiceDateFrom", "query", "From and including (YYYY-MM-DD).")),
				required(str("invoiceDateTo", "query", "To and excluding (YYYY-MM-DD).")),
				str("invoiceNumber", "query", "Invoice number."),
				integer("supplierId", "query", "Supplier ID."),
			),
		},
		{
			Name:        "list_supplier_invoices_for_approval",
			Description: "List supplier invoices waiting for approval.",
			Method:      fasthttp.MethodGet,
			Path:        "/supplierInvoice/forApproval",
			Params: withPaging(
				str("searchText", "query", "Free text search."),
				boolean("showAll", "query", "Show all invoices, not only those assigned to the employee."),
				integer("employeeId", "query", "Approver employee ID."),
			),
		},
		{
			Name:        "approve_supplier_invoice",
			Description: "Approve a supplier invoice.",
			Method:      fasthttp.MethodPut,
			Path:        "/supplierInvoice/{invoiceId}/:approve",
			Params: []Param{
				required(integer("invoiceId", "path", "Supplier invoice ID.")),
				str("comment", "query", "Approval comment."),
			},
		},
		{
			Name:        "reject_supplier_invoice",
			Description: "Reject a supplier invoice. A comment is required.",
			Method:      fasthttp.MethodPut,
			Path:        "/supplierInvoice/{invoiceId}/:reject",
			Params: []Param{
				required(integer("invoiceId", "path", "Supplier invoice ID.")),
				required(str("comment", "query", "Reason for rejecting.")),
			},
		},
	}
}
