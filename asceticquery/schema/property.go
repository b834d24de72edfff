package schema

import (
	"slices"
)

// Type is the declared type of a queryable property.
type Type int

const (
	TypeString Type = iota + 1
	TypeText
	TypeInteger
	TypeNumber
	TypeBoolean
	TypeDate
	TypeEnum
	TypeReference
	TypeCollection
)

func (t Type) String() string {
	switch t {
	case TypeString:
		return "String"
	case TypeText:
		return "Text"
	case TypeInteger:
		return "Integer"
	case TypeNumber:
		return "Number"
	case TypeBoolean:
		return "Boolean"
	case TypeDate:
		return "Date"
	case TypeEnum:
		return "Enum"
	case TypeReference:
		return "Reference"
	case TypeCollection:
		return "Collection"
	}
	return "Unknown"
}

func (t Type) IsTextual() bool {
	return t == TypeString || t == TypeText || t == TypeEnum
}

// IsSimple reports whether values of the type are scalars.
func (t Type) IsSimple() bool {
	return t != TypeReference && t != TypeCollection
}

func (t Type) IsOrdered() bool {
	switch t {
	case TypeString, TypeText, TypeInteger, TypeNumber, TypeDate, TypeEnum:
		return true
	}
	return false
}

// ForeignKeyPair represents a single FK column mapping
type ForeignKeyPair struct {
	// ChildColumn is the column on the referencing side (e.g. "dataelementid")
	ChildColumn string
	// ParentColumn is the column on the referenced side (e.g. "dataelementid")
	ParentColumn string
}

// JoinTable is the link table of a many-to-many relation.
type JoinTable struct {
	Table string
	// Outer pairs link-table columns (child) with the owning table (parent).
	Outer []ForeignKeyPair
	// Inner pairs link-table columns (child) with the related table (parent).
	Inner []ForeignKeyPair
}

// Relation defines how a navigable property reaches the table of its target schema.
type Relation struct {
	// Table of the related entity.
	Table string
	// Join pairs related-table columns (child) with the owning table (parent).
	// Ignored when Through is set.
	Join []ForeignKeyPair
	// Through is set for many-to-many relations.
	Through *JoinTable
}

// Property describes one queryable attribute. Values are immutable once registered.
type Property struct {
	Name string
	Type Type
	// ItemType is the element type when Type is TypeCollection.
	ItemType  Type
	Persisted bool
	// Column is the storage column for persisted simple properties and many-to-one references.
	Column   string
	Relation *Relation
	// Schema is the target of Reference and Collection properties.
	Schema     *Schema
	Getter     func(entity any) any
	EnumValues []string
}

// Field declares a persisted simple property.
func Field(name string, typ Type, column string, getter func(any) any) Property {
	return Property{
		Name:      name,
		Type:      typ,
		Persisted: true,
		Column:    column,
		Getter:    getter,
	}
}

// Virtual declares a property that exists only on materialized objects.
func Virtual(name string, typ Type, getter func(any) any) Property {
	return Property{
		Name:   name,
		Type:   typ,
		Getter: getter,
	}
}

// Reference declares a persisted many-to-one property. column is the FK column on the owning table.
func Reference(name string, target *Schema, column string, relation Relation, getter func(any) any) Property {
	return Property{
		Name:      name,
		Type:      TypeReference,
		Persisted: true,
		Column:    column,
		Relation:  &relation,
		Schema:    target,
		Getter:    getter,
	}
}

// Collection declares a persisted to-many property.
func Collection(name string, target *Schema, relation Relation, getter func(any) any) Property {
	return Property{
		Name:      name,
		Type:      TypeCollection,
		ItemType:  TypeReference,
		Persisted: true,
		Relation:  &relation,
		Schema:    target,
		Getter:    getter,
	}
}

// WithEnum restricts the literals accepted for an enum property.
func (p Property) WithEnum(values ...string) Property {
	p.Type = TypeEnum
	p.EnumValues = slices.Clone(values)
	return p
}

// Transient marks the property as not filterable by the storage engine.
func (p Property) Transient() Property {
	p.Persisted = false
	return p
}

func (p Property) IsSimple() bool {
	return p.Type.IsSimple()
}

func (p Property) IsCollection() bool {
	return p.Type == TypeCollection
}

func (p Property) IsNavigable() bool {
	return !p.IsSimple() && p.Schema != nil
}

func (p Property) Value(entity any) any {
	if p.Getter == nil || entity == nil {
		return nil
	}
	return p.Getter(entity)
}

func (p Property) AcceptsEnum(value string) bool {
	return slices.Contains(p.EnumValues, value)
}

// Get adapts a typed accessor to the untyped getter stored on a Property.
func Get[E any, V any](fn func(*E) V) func(any) any {
	return func(entity any) any {
		e, ok := entity.(*E)
		if !ok || e == nil {
			return nil
		}
		return fn(e)
	}
}

// GetRef is Get for pointer-valued accessors; a nil pointer yields an untyped nil.
func GetRef[E any, V any](fn func(*E) *V) func(any) any {
	return func(entity any) any {
		e, ok := entity.(*E)
		if !ok || e == nil {
			return nil
		}
		v := fn(e)
		if v == nil {
			return nil
		}
		return v
	}
}

// GetOpt is Get for optional scalars stored as pointers.
func GetOpt[E any, V any](fn func(*E) *V) func(any) any {
	return func(entity any) any {
		e, ok := entity.(*E)
		if !ok || e == nil {
			return nil
		}
		v := fn(e)
		if v == nil {
			return nil
		}
		return *v
	}
}
