package repository

// Predicates selecting workflow rows that still hold a resource.  Used by
// Restrict dependents and by the capacity and overlap checks.
const (
	openBookingPredicate    = "status_id IN (SELECT id FROM statuses WHERE kind = 'BOOKING' AND code IN ('PENDING','CONFIRMED'))"
	openEnrollmentPredicate = "status_id IN (SELECT id FROM statuses WHERE kind = 'ENROLLMENT' AND code IN ('PENDING','ACTIVE'))"
	openOrderPredicate      = "status_id IN (SELECT id FROM statuses WHERE kind = 'ORDER' AND code IN ('PENDING','PAID'))"
	// Ticket purchase statuses come from the provider as free text.
	openTicketPredicate = "LOWER(status) NOT IN ('cancelled','canceled','refunded','failed')"
)

// Table metadata and the soft delete dependency graph.
var (
	tenantsMeta = &Meta{Name: "tenants", Soft: true, Dependents: []Dependent{
		{Table: usersMeta, FK: "tenant_id", Policy: Cascade},
		{Table: academiesMeta, FK: "tenant_id", Policy: Cascade},
		{Table: fieldsMeta, FK: "tenant_id", Policy: Cascade},
		{Table: productsMeta, FK: "tenant_id", Policy: Cascade},
		{Table: filesMeta, FK: "tenant_id", Policy: Cascade},
	}}
	usersMeta = &Meta{Name: "users", Tenant: true, Soft: true, Dependents: []Dependent{
		{Table: fieldBookingsMeta, FK: "user_id", Policy: Restrict, Where: openBookingPredicate},
		{Table: enrollmentsMeta, FK: "user_id", Policy: Restrict, Where: openEnrollmentPredicate},
		{Table: ordersMeta, FK: "user_id", Policy: Restrict, Where: openOrderPredicate},
		{Table: ticketPurchasesMeta, FK: "user_id", Policy: Restrict, Where: openTicketPredicate},
		{Table: refreshTokensMeta, FK: "user_id", Policy: Cascade},
	}}
	refreshTokensMeta = &Meta{Name: "refresh_tokens", Tenant: true}
	statusesMeta      = &Meta{Name: "statuses"}
	filesMeta         = &Meta{Name: "files", Tenant: true, Soft: true, Dependents: []Dependent{
		{Table: productsMeta, FK: "image_file_id", Policy: SetNull},
		{Table: academiesMeta, FK: "logo_file_id", Policy: SetNull},
	}}
	academiesMeta = &Meta{Name: "academies", Tenant: true, Soft: true, Dependents: []Dependent{
		{Table: academyClassesMeta, FK: "academy_id", Policy: Cascade},
	}}
	academyClassesMeta = &Meta{Name: "academy_classes", Tenant: true, Soft: true, Dependents: []Dependent{
		{Table: enrollmentsMeta, FK: "class_id", Policy: Restrict, Where: openEnrollmentPredicate},
	}}
	enrollmentsMeta = &Meta{Name: "enrollments", Tenant: true, Soft: true}
	fieldsMeta      = &Meta{Name: "fields", Tenant: true, Soft: true, Dependents: []Dependent{
		{Table: fieldBookingsMeta, FK: "field_id", Policy: Restrict, Where: openBookingPredicate},
	}}
	fieldBookingsMeta   = &Meta{Name: "field_bookings", Tenant: true, Soft: true}
	productsMeta        = &Meta{Name: "products", Tenant: true, Soft: true}
	ordersMeta          = &Meta{Name: "orders", Tenant: true, Soft: true}
	orderItemsMeta      = &Meta{Name: "order_items"}
	paymentsMeta        = &Meta{Name: "payments", Tenant: true}
	notificationsMeta   = &Meta{Name: "notifications", Tenant: true}
	ticketPurchasesMeta = &Meta{Name: "ticket_purchases", Tenant: true}
)
