// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"cmp"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"promptforge/internal/models"
	"promptforge/internal/order"
)

// The persisted document encodes every map as an array of [key, value]
// pairs, recursively, since JSON objects cannot carry typed or numeric
// keys faithfully.

type pair[K cmp.Ordered, V any] struct {
	Key   K
	Value V
}

func (p pair[K, V]) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{p.Key, p.Value})
}

func (p *pair[K, V]) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("pair: want 2 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &p.Key); err != nil {
		return fmt.Errorf("pair key: %w", err)
	}
	if err := json.Unmarshal(raw[1], &p.Value); err != nil {
		return fmt.Errorf("pair value: %w", err)
	}
	return nil
}

type pairs[K cmp.Ordered, V any] []pair[K, V]

// toPairs converts m into pairs sorted by key so the output is stable.
func toPairs[K cmp.Ordered, V any, W any](m map[K]V, conv func(V) W) pairs[K, W] {
	out := make(pairs[K, W], 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		out = append(out, pair[K, W]{Key: k, Value: conv(m[k])})
	}
	return out
}

func toMap[K cmp.Ordered, V any, W any](ps pairs[K, V], conv func(V) W) map[K]W {
	out := make(map[K]W, len(ps))
	for _, p := range ps {
		out[p.Key] = conv(p.Value)
	}
	return out
}

func same[V any](v V) V { return v }

type wireElement struct {
	models.Element
	Body pairs[int, string] `json:"body"`
}

type wireTemplate struct {
	models.TemplateGroup
	Sections     pairs[int, pairs[models.SectionID, models.Section]] `json:"sections"`
	GlobalFields pairs[string, models.FieldBinding]                  `json:"globalFields"`
}

type document struct {
	Groups         pairs[models.GroupID, models.Group]                                      `json:"groups"`
	Items          pairs[models.GroupID, pairs[models.ElementID, wireElement]]              `json:"items"`
	Badges         pairs[models.BadgeID, models.Badge]                                      `json:"badges"`
	GroupBadges    pairs[models.GroupID, pairs[models.BadgeID, []models.ElementID]]         `json:"groupBadges"`
	Template       pairs[models.TemplateGroupID, wireTemplate]                              `json:"template"`
	ModifierGroups pairs[models.ModifierGroupID, models.ModifierGroup]                      `json:"modifierGroups"`
	Modifiers      pairs[models.ModifierGroupID, pairs[models.ModifierID, models.Modifier]] `json:"modifiers"`
	NextOrder      float64                                                                  `json:"nextOrder"`
}

func encodeElement(e models.Element) wireElement {
	return wireElement{Element: e, Body: toPairs(e.Body, same[string])}
}

func decodeElement(w wireElement) models.Element {
	e := w.Element
	e.Body = toMap(w.Body, same[string])
	if e.Fields == nil {
		e.Fields = []models.TemplateField{}
	}
	return e
}

func encodeSectionMap(m models.SectionMap) pairs[models.SectionID, models.Section] {
	return toPairs(map[models.SectionID]models.Section(m), same[models.Section])
}

func decodeSectionMap(ps pairs[models.SectionID, models.Section]) models.SectionMap {
	return models.SectionMap(toMap(ps, func(s models.Section) models.Section {
		if s.Items == nil {
			s.Items = []models.SectionItem{}
		}
		return s
	}))
}

func encodeTemplate(t models.TemplateGroup) wireTemplate {
	return wireTemplate{
		TemplateGroup: t,
		Sections:      toPairs(t.Sections, encodeSectionMap),
		GlobalFields:  toPairs(t.GlobalFields, same[models.FieldBinding]),
	}
}

func decodeTemplate(w wireTemplate) models.TemplateGroup {
	t := w.TemplateGroup
	t.Sections = toMap(w.Sections, decodeSectionMap)
	t.GlobalFields = toMap(w.GlobalFields, same[models.FieldBinding])
	return t
}

// Encode serialises the whole store into one JSON document. Empty badge
// lists and groups without any badge are pruned from the badge index.
func (s *Store) Encode() ([]byte, error) {
	s.mu.RLock()
	doc := document{
		Groups: toPairs(s.groups, same[models.Group]),
		Items: toPairs(s.items, func(m map[models.ElementID]models.Element) pairs[models.ElementID, wireElement] {
			return toPairs(m, encodeElement)
		}),
		Badges:         toPairs(s.badges, same[models.Badge]),
		GroupBadges:    toPairs(pruneBadgeIndex(s.groupBadges), func(m map[models.BadgeID][]models.ElementID) pairs[models.BadgeID, []models.ElementID] { return toPairs(m, same[[]models.ElementID]) }),
		Template:       toPairs(s.templates, encodeTemplate),
		ModifierGroups: toPairs(s.modifierGroups, same[models.ModifierGroup]),
		Modifiers: toPairs(s.modifiers, func(m map[models.ModifierID]models.Modifier) pairs[models.ModifierID, models.Modifier] {
			return toPairs(m, same[models.Modifier])
		}),
		NextOrder: s.order.Value(),
	}
	data, err := json.Marshal(doc)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("encode entity map: %w", err)
	}
	return data, nil
}

func pruneBadgeIndex(index map[models.GroupID]map[models.BadgeID][]models.ElementID) map[models.GroupID]map[models.BadgeID][]models.ElementID {
	out := make(map[models.GroupID]map[models.BadgeID][]models.ElementID)
	for gid, badges := range index {
		kept := make(map[models.BadgeID][]models.ElementID)
		for bid, ids := range badges {
			if len(ids) > 0 {
				kept[bid] = ids
			}
		}
		if len(kept) > 0 {
			out[gid] = kept
		}
	}
	return out
}

// maxOrder returns the largest order key held by any record. Callers hold
// s.mu.
func (s *Store) maxOrder() float64 {
	m := 0.0
	for _, g := range s.groups {
		m = max(m, g.Order)
	}
	for _, items := range s.items {
		for _, e := range items {
			m = max(m, e.Order)
		}
	}
	for _, t := range s.templates {
		m = max(m, t.Order)
		for _, sections := range t.Sections {
			for _, sec := range sections {
				m = max(m, sec.Order)
				for _, item := range sec.Items {
					m = max(m, item.Order)
				}
			}
		}
	}
	for _, g := range s.modifierGroups {
		m = max(m, g.Order)
	}
	for _, mods := range s.modifiers {
		for _, mod := range mods {
			m = max(m, mod.Order)
		}
	}
	return m
}

// Decode replaces the store contents with a document produced by Encode.
// The document is parsed before anything is touched; once it parses,
// every map is cleared and rebuilt from it. Observers get a single reset
// event.
func (s *Store) Decode(data []byte) error {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode entity map: %w", err)
	}

	s.mu.Lock()
	s.clear()
	s.groups = toMap(doc.Groups, same[models.Group])
	for _, p := range doc.Items {
		s.items[p.Key] = toMap(p.Value, decodeElement)
	}
	for gid := range s.groups {
		if _, ok := s.items[gid]; !ok {
			s.items[gid] = make(map[models.ElementID]models.Element)
		}
	}
	s.badges = toMap(doc.Badges, same[models.Badge])
	for _, p := range doc.GroupBadges {
		s.groupBadges[p.Key] = toMap(p.Value, same[[]models.ElementID])
	}
	s.templates = toMap(doc.Template, decodeTemplate)
	s.modifierGroups = toMap(doc.ModifierGroups, same[models.ModifierGroup])
	for _, p := range doc.Modifiers {
		s.modifiers[p.Key] = toMap(p.Value, same[models.Modifier])
	}
	for gid := range s.modifierGroups {
		if _, ok := s.modifiers[gid]; !ok {
			s.modifiers[gid] = make(map[models.ModifierID]models.Modifier)
		}
	}
	s.order.Reset(max(doc.NextOrder, s.maxOrder()+order.Delta))
	s.mu.Unlock()

	s.notify(Event{Kind: KindAll, Op: OpReset})
	return nil
}
