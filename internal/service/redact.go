package service

import (
	"github.com/openhrm/victimdb/internal/crypto/fieldcipher"
	"github.com/openhrm/victimdb/internal/model"
)

// Redactor builds role-appropriate views of stored records. Every read path
// (single fetch, listing, by-case query) goes through Redact; there is no
// trusted path that skips it.
type Redactor struct {
	cipher *fieldcipher.Cipher
}

// NewRedactor constructs a Redactor over the field cipher.
func NewRedactor(cipher *fieldcipher.Cipher) *Redactor {
	return &Redactor{cipher: cipher}
}

// Redact returns a view of rec appropriate for the principal. It never
// mutates the input:
//   - without the admin role, contact info collapses to the non-sensitive
//     preferred-contact field; email, phone, and the secure-messaging handle
//     are removed entirely;
//   - with the admin role, encrypted contact fields are decrypted (a failed
//     decryption falls back to the stored value);
//   - for anonymous records, demographics is nulled regardless of role.
func (r *Redactor) Redact(rec model.VictimRecord, p model.Principal) model.VictimRecord {
	view := rec

	if rec.ContactInfo != nil {
		if p.HasRole(model.RoleAdmin) {
			ci := *rec.ContactInfo
			if ci.Email != nil {
				v := r.cipher.Decrypt(*ci.Email)
				ci.Email = &v
			}
			if ci.Phone != nil {
				v := r.cipher.Decrypt(*ci.Phone)
				ci.Phone = &v
			}
			view.ContactInfo = &ci
		} else {
			view.ContactInfo = &model.ContactInfo{PreferredContact: rec.ContactInfo.PreferredContact}
		}
	}

	if rec.Anonymous {
		view.Demographics = nil
	}

	return view
}
