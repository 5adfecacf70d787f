package provider

import (
	"fmt"
	"strings"
	"time"

	"ReviewDesk/internal/domain"
	"ReviewDesk/internal/source"
)

const unknown = "Unknown"

// Catalog lists every known provider in feed registration order.
func Catalog() []Spec {
	return []Spec{
		{Name: "abstracts", Kind: domain.KindSubmission, Path: "/abstracts", Map: mapAbstract},
		{Name: "careers", Kind: domain.KindCareer, Path: "/careers", ChildPath: "/careers/{id}/applications", Map: mapApplication},
		{Name: "workshops", Kind: domain.KindWorkshop, Path: "/workshops", ChildPath: "/workshops/{id}/registrations", Map: registrationMapper("workshop")},
		{Name: "webinars", Kind: domain.KindWebinar, Path: "/webinars", ChildPath: "/webinars/{id}/registrations", Map: registrationMapper("webinar")},
		{Name: "conferences", Kind: domain.KindConference, Path: "/conferences", ChildPath: "/conferences/{id}/registrations", Map: registrationMapper("conference")},
		{Name: "contacts", Kind: domain.KindContact, Path: "/contact-messages", Map: mapContact},
		{Name: "newsletter", Kind: domain.KindContact, Path: "/newsletter/subscriptions", Map: mapSubscription},
		{Name: "publications", Kind: domain.KindPublication, Path: "/publications", Map: mapPublication},
		{Name: "trainings", Kind: domain.KindTraining, Path: "/training-programs", ChildPath: "/training-programs/{id}/enrollments", Map: mapEnrollment},
		{Name: "educational", Kind: domain.KindEducational, Path: "/educational-resources", Map: mapResource},
		{Name: "memberships", Kind: domain.KindMembership, Path: "/memberships", Map: mapMembership},
	}
}

// Lookup returns the catalog entry for name.
func Lookup(name string) (Spec, error) {
	for _, spec := range Catalog() {
		if spec.Name == name {
			return spec, nil
		}
	}
	return Spec{}, fmt.Errorf("provider %s is not in the catalog", name)
}

func occurred(rec source.Record, keys ...string) time.Time {
	keys = append(keys, "created_at", "updated_at")
	t, _ := rec.Time(keys...)
	return t
}

func personName(rec source.Record) string {
	if name := rec.String("full_name", "name", "applicant_name"); name != "" {
		return name
	}
	first := rec.String("first_name", "applicant.first_name")
	last := rec.String("last_name", "applicant.last_name")
	if name := strings.TrimSpace(first + " " + last); name != "" {
		return name
	}
	return rec.StringOr(unknown, "applicant.name", "email")
}

func mapAbstract(rec source.Record) Fields {
	title := rec.StringOr("Untitled abstract", "title")
	author := rec.String("presenting_author", "submitter_name", "author_name")
	if author == "" {
		if authors, ok := rec.Get("authors"); ok {
			if list, ok := authors.([]any); ok && len(list) > 0 {
				if first, ok := list[0].(map[string]any); ok {
					author = source.Record(first).String("name")
				}
			}
		}
	}
	if author == "" {
		author = unknown
	}

	f := Fields{
		NativeID:   rec.ID(),
		Kind:       domain.KindSubmission,
		Title:      "New abstract submission",
		Message:    fmt.Sprintf("%s submitted %q", author, title),
		OccurredAt: occurred(rec, "submitted_at", "submission_date"),
	}
	if category := rec.String("category"); category != "" {
		f.Message += " in " + category
	}
	if featured, _ := rec.Bool("is_featured", "featured"); featured {
		f.Kind = domain.KindAward
		f.Title = "Featured abstract"
		f.Message = fmt.Sprintf("%q by %s was featured", title, author)
	}
	return f
}

func mapApplication(rec source.Record) Fields {
	position := rec.Nested("parent").StringOr("an open position", "title", "position")
	return Fields{
		NativeID:   rec.ID(),
		Title:      "New job application",
		Message:    fmt.Sprintf("%s applied for %s", personName(rec), position),
		OccurredAt: occurred(rec, "applied_at", "application_date"),
	}
}

func registrationMapper(event string) Mapper {
	return func(rec source.Record) Fields {
		name := rec.Nested("parent").StringOr("an upcoming "+event, "title", "name")
		msg := fmt.Sprintf("%s registered for %s", personName(rec), name)
		if kind := rec.String("registration_type", "ticket_type"); kind != "" {
			msg += " (" + kind + ")"
		}
		return Fields{
			NativeID:   rec.ID(),
			Title:      "New " + event + " registration",
			Message:    msg,
			OccurredAt: occurred(rec, "registered_at", "registration_date"),
		}
	}
}

func mapContact(rec source.Record) Fields {
	subject := rec.StringOr("No subject", "subject")
	msg := fmt.Sprintf("%s: %s", personName(rec), subject)
	if body := plainText(rec.String("message", "body"), previewLength); body != "" {
		msg += " - " + body
	}
	return Fields{
		NativeID:   rec.ID(),
		Title:      "New contact message",
		Message:    msg,
		OccurredAt: occurred(rec, "sent_at"),
	}
}

func mapSubscription(rec source.Record) Fields {
	email := rec.StringOr(unknown, "email")
	return Fields{
		NativeID:   rec.ID("id", "email"),
		Title:      "New newsletter subscription",
		Message:    fmt.Sprintf("%s subscribed to the newsletter", email),
		OccurredAt: occurred(rec, "subscribed_at"),
	}
}

func mapPublication(rec source.Record) Fields {
	title := rec.StringOr("Untitled publication", "title")
	msg := fmt.Sprintf("%q by %s", title, rec.StringOr(unknown, "authors", "author"))
	if journal := rec.String("journal", "venue"); journal != "" {
		msg += " in " + journal
	}
	return Fields{
		NativeID:   rec.ID(),
		Title:      "New publication",
		Message:    msg,
		OccurredAt: occurred(rec, "published_at", "publication_date"),
	}
}

func mapEnrollment(rec source.Record) Fields {
	program := rec.Nested("parent").StringOr("a training program", "title", "name")
	return Fields{
		NativeID:   rec.ID(),
		Title:      "New training enrollment",
		Message:    fmt.Sprintf("%s enrolled in %s", personName(rec), program),
		OccurredAt: occurred(rec, "enrolled_at", "enrollment_date"),
	}
}

func mapResource(rec source.Record) Fields {
	title := rec.StringOr("Untitled resource", "title")
	msg := fmt.Sprintf("%s %q was added", rec.StringOr("Resource", "resource_type", "type"), title)
	if desc := plainText(rec.String("description"), previewLength); desc != "" {
		msg += ": " + desc
	}
	return Fields{
		NativeID:   rec.ID(),
		Title:      "New educational resource",
		Message:    msg,
		OccurredAt: occurred(rec, "published_at"),
	}
}

func mapMembership(rec source.Record) Fields {
	plan := rec.StringOr("standard", "membership_type", "plan", "tier")
	msg := fmt.Sprintf("%s applied for %s membership", personName(rec), plan)
	if status := rec.String("status"); status != "" {
		msg += " (" + status + ")"
	}
	return Fields{
		NativeID:   rec.ID(),
		Title:      "New membership application",
		Message:    msg,
		OccurredAt: occurred(rec, "applied_at", "joined_at"),
	}
}
