package patient

import "github.com/clinrec/clinrec/internal/platform/fhir"

// Merge overlays incoming onto existing and returns a new patient. The merge
// is an allow-listed overlay over whole field groups: a group the incoming
// record sets replaces the existing group wholesale, a group it leaves unset
// carries over unchanged. Everything outside the allow-list (identifiers,
// meta, marital status) always carries over from existing, so a partial
// update cannot clobber fields the endpoint does not manage.
//
// Mutable groups: name, gender, birthDate, telecom, address, active.
func Merge(existing, incoming *Patient) *Patient {
	merged := existing.Clone()

	if len(incoming.Name) > 0 {
		merged.Name = cloneNames(incoming.Name)
	}
	if incoming.Gender != "" {
		merged.Gender = incoming.Gender
	}
	if incoming.BirthDate != "" {
		merged.BirthDate = incoming.BirthDate
	}
	if len(incoming.Telecom) > 0 {
		merged.Telecom = append(merged.Telecom[:0:0], incoming.Telecom...)
	}
	if len(incoming.Address) > 0 {
		merged.Address = append(merged.Address[:0:0], incoming.Address...)
	}
	if incoming.Active != nil {
		active := *incoming.Active
		merged.Active = &active
	}

	return merged
}

func cloneNames(names []fhir.HumanName) []fhir.HumanName {
	out := make([]fhir.HumanName, len(names))
	for i, n := range names {
		out[i] = n
		out[i].Given = append(n.Given[:0:0], n.Given...)
		out[i].Prefix = append(n.Prefix[:0:0], n.Prefix...)
		out[i].Suffix = append(n.Suffix[:0:0], n.Suffix...)
	}
	return out
}
