package core

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"sort"

	"recordcore/pkg/record"
	"recordcore/pkg/schema"
)

// LoadAssociations populates the model's declared association fields
// from stored state. Belongs-to fields must be pointers to the target
// struct; the remaining kinds load into slices of the target struct.
func (s *Service) LoadAssociations(ctx context.Context, model record.Model) error {
	return s.observe(ctx, "load_associations", func(ctx context.Context) error {
		associated, ok := model.(record.Associated)
		if !ok {
			return fmt.Errorf("%T declares no associations", model)
		}
		table, err := s.tableFor(model)
		if err != nil {
			return err
		}
		base, err := record.BaseOf(model)
		if err != nil {
			return err
		}
		rv := reflect.ValueOf(model).Elem()
		for _, assoc := range associated.Associations() {
			field := rv.FieldByName(assoc.Name)
			if !field.IsValid() {
				return fmt.Errorf("%s: association %s has no matching field", table.Name, assoc.Name)
			}
			target, ok := s.registry.Lookup(assoc.Target)
			if !ok {
				return fmt.Errorf("%s: association %s targets unregistered table %s", table.Name, assoc.Name, assoc.Target)
			}
			switch assoc.Kind {
			case record.KindBelongsTo:
				if err := s.loadBelongsTo(model, table, target, assoc, field); err != nil {
					return err
				}
			case record.KindHasMany:
				ids := s.collectIDs(assoc.Target, assoc.ForeignKey, base.ID)
				if err := s.fillSlice(field, target, ids); err != nil {
					return err
				}
			case record.KindHasManyThrough, record.KindHasAndBelongsToMany:
				var ids []string
				for _, link := range s.store.List(assoc.Through) {
					owner, ok := payloadField(link.Payload, assoc.ForeignKey)
					if !ok || fmt.Sprint(owner) != base.ID {
						continue
					}
					if targetID, ok := payloadField(link.Payload, assoc.TargetKey); ok {
						ids = append(ids, fmt.Sprint(targetID))
					}
				}
				sort.Strings(ids)
				// A target referenced by several through rows loads once.
				ids = slices.Compact(ids)
				if err := s.fillSlice(field, target, ids); err != nil {
					return err
				}
			default:
				return fmt.Errorf("%s: association %s has unknown kind %q", table.Name, assoc.Name, assoc.Kind)
			}
		}
		return nil
	})
}

func (s *Service) loadBelongsTo(model record.Model, table, target *schema.Table, assoc record.Association, field reflect.Value) error {
	if field.Kind() != reflect.Pointer {
		return fmt.Errorf("%s: belongs-to field %s must be a pointer", table.Name, assoc.Name)
	}
	col, ok := table.Column(assoc.ForeignKey)
	if !ok {
		return fmt.Errorf("%s: belongs-to %s references unknown column %s", table.Name, assoc.Name, assoc.ForeignKey)
	}
	fk := reflect.ValueOf(model).Elem().FieldByName(col.Field)
	for fk.Kind() == reflect.Pointer {
		if fk.IsNil() {
			field.Set(reflect.Zero(field.Type()))
			return nil
		}
		fk = fk.Elem()
	}
	id := fmt.Sprint(fk.Interface())
	if id == "" {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}
	env, ok := s.store.Get(target.Name, id)
	if !ok {
		return fmt.Errorf("%s/%s: %w", target.Name, id, record.ErrNotFound)
	}
	item := reflect.New(field.Type().Elem())
	dest, ok := item.Interface().(record.Model)
	if !ok {
		return fmt.Errorf("%s: belongs-to field %s is not a model", table.Name, assoc.Name)
	}
	if err := decodePayload(env.Payload, dest, target); err != nil {
		return err
	}
	field.Set(item)
	return nil
}

// collectIDs returns ids of table rows whose column equals value, sorted.
func (s *Service) collectIDs(table, column, value string) []string {
	var ids []string
	for _, env := range s.store.List(table) {
		got, ok := payloadField(env.Payload, column)
		if ok && fmt.Sprint(got) == value {
			ids = append(ids, env.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

func (s *Service) fillSlice(field reflect.Value, target *schema.Table, ids []string) error {
	if field.Kind() != reflect.Slice {
		return fmt.Errorf("association field %s must be a slice", field.Type())
	}
	out := reflect.MakeSlice(field.Type(), 0, len(ids))
	for _, id := range ids {
		env, ok := s.store.Get(target.Name, id)
		if !ok {
			continue
		}
		item := reflect.New(field.Type().Elem())
		dest, ok := item.Interface().(record.Model)
		if !ok {
			return fmt.Errorf("association element %s is not a model", field.Type().Elem())
		}
		if err := decodePayload(env.Payload, dest, target); err != nil {
			return err
		}
		out = reflect.Append(out, item.Elem())
	}
	field.Set(out)
	return nil
}

// linkID derives a deterministic join-row id so the same pair links to
// the same row from either side of the association.
func linkID(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}

func (s *Service) habtm(owner record.Model, name string) (record.Association, *record.Base, error) {
	associated, ok := owner.(record.Associated)
	if !ok {
		return record.Association{}, nil, fmt.Errorf("%T declares no associations", owner)
	}
	for _, assoc := range associated.Associations() {
		if assoc.Name == name {
			if assoc.Kind != record.KindHasAndBelongsToMany {
				return record.Association{}, nil, fmt.Errorf("association %s is %s, not %s", name, assoc.Kind, record.KindHasAndBelongsToMany)
			}
			base, err := record.BaseOf(owner)
			if err != nil {
				return record.Association{}, nil, err
			}
			return assoc, base, nil
		}
	}
	return record.Association{}, nil, fmt.Errorf("unknown association %s", name)
}

// Associate links owner and target through the named has-and-belongs-to-
// many association. Linking an already linked pair is a no-op.
func (s *Service) Associate(ctx context.Context, owner record.Model, name string, target record.Model) (record.Result, error) {
	var result record.Result
	err := s.observe(ctx, "associate", func(ctx context.Context) error {
		assoc, ownerBase, err := s.habtm(owner, name)
		if err != nil {
			return err
		}
		targetBase, err := record.BaseOf(target)
		if err != nil {
			return err
		}
		payload, err := json.Marshal(map[string]string{assoc.ForeignKey: ownerBase.ID, assoc.TargetKey: targetBase.ID})
		if err != nil {
			return err
		}
		id := linkID(ownerBase.ID, targetBase.ID)
		res, err := s.store.RunInTransaction(ctx, func(tx record.Transaction) error {
			if _, exists := tx.Find(assoc.Through, id); exists {
				return nil
			}
			_, err := tx.Insert(record.Envelope{Table: assoc.Through, ID: id, Payload: payload})
			return err
		})
		result.Merge(res)
		return err
	})
	return result, err
}

// Dissociate removes the join row linking owner and target. Removing a
// link that does not exist is a no-op.
func (s *Service) Dissociate(ctx context.Context, owner record.Model, name string, target record.Model) (record.Result, error) {
	var result record.Result
	err := s.observe(ctx, "dissociate", func(ctx context.Context) error {
		assoc, ownerBase, err := s.habtm(owner, name)
		if err != nil {
			return err
		}
		targetBase, err := record.BaseOf(target)
		if err != nil {
			return err
		}
		id := linkID(ownerBase.ID, targetBase.ID)
		res, err := s.store.RunInTransaction(ctx, func(tx record.Transaction) error {
			if _, exists := tx.Find(assoc.Through, id); !exists {
				return nil
			}
			return tx.Delete(assoc.Through, id, 0)
		})
		result.Merge(res)
		return err
	})
	return result, err
}
