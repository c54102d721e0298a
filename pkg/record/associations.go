package record

// AssociationKind identifies the relationship shape between two tables.
type AssociationKind string

// Supported relationship shapes.
const (
	// KindBelongsTo holds the foreign key on the declaring table.
	KindBelongsTo AssociationKind = "belongs_to"
	// KindHasMany holds the foreign key on the target table.
	KindHasMany AssociationKind = "has_many"
	// KindHasManyThrough traverses an intermediate table's belongs-to pair.
	KindHasManyThrough AssociationKind = "has_many_through"
	// KindHasAndBelongsToMany joins both tables through a dedicated join table.
	KindHasAndBelongsToMany AssociationKind = "habtm"
)

// Association declares a relationship from the owning model to Target.
// Tables are referenced by name so declarations stay free of import cycles
// between model packages.
type Association struct {
	Kind AssociationKind
	// Name is the accessor name used when loading the association.
	Name string
	// Target is the table name of the related model.
	Target string
	// ForeignKey is the referencing column: on the owning table for
	// belongs-to, on the target table for has-many, on the through/join
	// table for the remaining kinds.
	ForeignKey string
	// Through is the intermediate (or join) table for has-many-through and
	// has-and-belongs-to-many.
	Through string
	// TargetKey is the column on the through/join table referencing Target.
	TargetKey string
}

// BelongsTo declares that the owning table stores fk referencing target.
func BelongsTo(name, target, fk string) Association {
	return Association{Kind: KindBelongsTo, Name: name, Target: target, ForeignKey: fk}
}

// HasMany declares that rows of target store fk referencing the owner.
func HasMany(name, target, fk string) Association {
	return Association{Kind: KindHasMany, Name: name, Target: target, ForeignKey: fk}
}

// HasManyThrough declares a two-hop association: through rows hold fk
// referencing the owner and targetKey referencing target.
func HasManyThrough(name, target, through, fk, targetKey string) Association {
	return Association{Kind: KindHasManyThrough, Name: name, Target: target, Through: through, ForeignKey: fk, TargetKey: targetKey}
}

// HasAndBelongsToMany declares a symmetric association through a join table
// holding fk (owner side) and targetKey (target side).
func HasAndBelongsToMany(name, target, join, fk, targetKey string) Association {
	return Association{Kind: KindHasAndBelongsToMany, Name: name, Target: target, Through: join, ForeignKey: fk, TargetKey: targetKey}
}
