package feedprep

import "github.com/lmichelin/feedprep/constants"

// AuditRecord describes one identifier removed by a normalization pass.
type AuditRecord struct {
	Entity constants.Entity
	Id     string
	// Name is the human label of the row when resolvable (a stop name, a
	// route short name), otherwise empty.
	Name   string
	Reason string
}

// AuditLog is the append-only table of removed identifiers. It is never
// truncated; callers inspect it to learn which rows the integrity engine and
// the normalizers dropped and why.
type AuditLog struct {
	Records []AuditRecord
}

func NewAuditLog() *AuditLog {
	return &AuditLog{}
}

func (l *AuditLog) add(entity constants.Entity, id, name, reason string) {
	l.Records = append(l.Records, AuditRecord{Entity: entity, Id: id, Name: name, Reason: reason})
}

// ByEntity returns the records for one entity kind, in append order.
func (l *AuditLog) ByEntity(entity constants.Entity) []AuditRecord {
	var out []AuditRecord
	for _, r := range l.Records {
		if r.Entity == entity {
			out = append(out, r)
		}
	}
	return out
}

func (l *AuditLog) Copy() *AuditLog {
	return &AuditLog{Records: append([]AuditRecord(nil), l.Records...)}
}
