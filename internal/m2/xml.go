package m2

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// xml documents follow the classic model layout:
//
//	<model name="my:model">
//	  <namespaces><namespace uri="..." prefix="my"/></namespaces>
//	  <types><type name="my:doc"><parent>cm:content</parent>...</type></types>
//	</model>
type xmlModel struct {
	XMLName     xml.Name        `xml:"model"`
	Name        string          `xml:"name,attr"`
	Description string          `xml:"description,omitempty"`
	Author      string          `xml:"author,omitempty"`
	Published   string          `xml:"published,omitempty"`
	Version     string          `xml:"version,omitempty"`
	Imports     []xmlNamespace  `xml:"imports>import"`
	Namespaces  []xmlNamespace  `xml:"namespaces>namespace"`
	DataTypes   []xmlDataType   `xml:"data-types>data-type"`
	Constraints []xmlConstraint `xml:"constraints>constraint"`
	Types       []xmlClass      `xml:"types>type"`
	Aspects     []xmlClass      `xml:"aspects>aspect"`
}

type xmlNamespace struct {
	URI    string `xml:"uri,attr"`
	Prefix string `xml:"prefix,attr"`
}

type xmlDataType struct {
	Name                   string `xml:"name,attr"`
	Title                  string `xml:"title,omitempty"`
	Description            string `xml:"description,omitempty"`
	Kind                   string `xml:"kind"`
	AnalyserResourceBundle string `xml:"analyser-resource-bundle,omitempty"`
}

type xmlParameter struct {
	Name  string   `xml:"name,attr"`
	Value *string  `xml:"value"`
	List  *xmlList `xml:"list"`
}

type xmlList struct {
	Values []string `xml:"value"`
}

type xmlConstraint struct {
	Name        string         `xml:"name,attr,omitempty"`
	Ref         string         `xml:"ref,attr,omitempty"`
	Type        string         `xml:"type,attr,omitempty"`
	Title       string         `xml:"title,omitempty"`
	Description string         `xml:"description,omitempty"`
	Parameters  []xmlParameter `xml:"parameter"`
}

type xmlMandatory struct {
	Enforced string `xml:"enforced,attr,omitempty"`
	Value    string `xml:",chardata"`
}

type xmlIndex struct {
	Enabled   string `xml:"enabled,attr"`
	Atomic    string `xml:"atomic,omitempty"`
	Stored    string `xml:"stored,omitempty"`
	Tokenised string `xml:"tokenised,omitempty"`
}

type xmlProperty struct {
	Name        string          `xml:"name,attr"`
	Title       string          `xml:"title,omitempty"`
	Description string          `xml:"description,omitempty"`
	Type        string          `xml:"type"`
	Protected   string          `xml:"protected,omitempty"`
	Mandatory   *xmlMandatory   `xml:"mandatory"`
	Multiple    string          `xml:"multiple,omitempty"`
	Default     *string         `xml:"default"`
	Index       *xmlIndex       `xml:"index"`
	Constraints []xmlConstraint `xml:"constraints>constraint"`
}

type xmlOverride struct {
	Name        string          `xml:"name,attr"`
	Mandatory   *xmlMandatory   `xml:"mandatory"`
	Default     *string         `xml:"default"`
	Constraints []xmlConstraint `xml:"constraints>constraint"`
}

type xmlEnd struct {
	Class     string        `xml:"class,omitempty"`
	Role      string        `xml:"role,omitempty"`
	Mandatory *xmlMandatory `xml:"mandatory"`
	Many      string        `xml:"many,omitempty"`
}

type xmlAssociation struct {
	Name                string  `xml:"name,attr"`
	Title               string  `xml:"title,omitempty"`
	Description         string  `xml:"description,omitempty"`
	Protected           string  `xml:"protected,omitempty"`
	Source              xmlEnd  `xml:"source"`
	Target              xmlEnd  `xml:"target"`
	ChildName           string  `xml:"child-name,omitempty"`
	Duplicate           *string `xml:"duplicate"`
	PropagateTimestamps string  `xml:"propagateTimestamps,omitempty"`
}

type xmlClass struct {
	Name                     string           `xml:"name,attr"`
	Title                    string           `xml:"title,omitempty"`
	Description              string           `xml:"description,omitempty"`
	Parent                   string           `xml:"parent,omitempty"`
	Archive                  *string          `xml:"archive"`
	IncludedInSuperTypeQuery *string          `xml:"includedInSuperTypeQuery"`
	Properties               []xmlProperty    `xml:"properties>property"`
	Overrides                []xmlOverride    `xml:"overrides>property"`
	Associations             []xmlAssociation `xml:"associations>association"`
	ChildAssociations        []xmlAssociation `xml:"associations>child-association"`
	MandatoryAspects         []string         `xml:"mandatory-aspects>aspect"`
}

func parseBool(field, s string) (bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", field, s)
	}
	return v, nil
}

func parseOptionalBool(field string, s *string) (*bool, error) {
	if s == nil {
		return nil, nil
	}
	v, err := parseBool(field, *s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func scalarPtr(s *string) *Scalar {
	if s == nil {
		return nil
	}
	v := Scalar(*s)
	return &v
}

func (x xmlModel) model() (*Model, error) {
	m := &Model{
		Name:        strings.TrimSpace(x.Name),
		Description: x.Description,
		Author:      x.Author,
		Published:   strings.TrimSpace(x.Published),
		Version:     Scalar(strings.TrimSpace(x.Version)),
	}
	for _, ns := range x.Imports {
		m.Imports = append(m.Imports, Namespace(ns))
	}
	for _, ns := range x.Namespaces {
		m.Namespaces = append(m.Namespaces, Namespace(ns))
	}
	for _, dt := range x.DataTypes {
		m.DataTypes = append(m.DataTypes, DataType{
			Name:                   dt.Name,
			Title:                  dt.Title,
			Description:            dt.Description,
			Kind:                   strings.TrimSpace(dt.Kind),
			AnalyserResourceBundle: dt.AnalyserResourceBundle,
		})
	}
	for _, c := range x.Constraints {
		m.Constraints = append(m.Constraints, c.constraint())
	}
	for _, c := range x.Types {
		class, err := c.class()
		if err != nil {
			return nil, fmt.Errorf("type %s: %w", c.Name, err)
		}
		m.Types = append(m.Types, class)
	}
	for _, c := range x.Aspects {
		class, err := c.class()
		if err != nil {
			return nil, fmt.Errorf("aspect %s: %w", c.Name, err)
		}
		m.Aspects = append(m.Aspects, class)
	}
	return m, nil
}

func (x xmlConstraint) constraint() Constraint {
	c := Constraint{
		Name:        x.Name,
		Ref:         x.Ref,
		Type:        x.Type,
		Title:       x.Title,
		Description: x.Description,
	}
	for _, p := range x.Parameters {
		param := Parameter{Name: p.Name, Value: scalarPtr(p.Value)}
		if p.List != nil {
			param.Value = nil
			param.List = make([]Scalar, 0, len(p.List.Values))
			for _, v := range p.List.Values {
				param.List = append(param.List, Scalar(v))
			}
		}
		c.Parameters = append(c.Parameters, param)
	}
	return c
}

func (x *xmlMandatory) flags(field string) (mandatory, enforced *bool, err error) {
	if x == nil {
		return nil, nil, nil
	}
	v, err := parseBool(field, x.Value)
	if err != nil {
		return nil, nil, err
	}
	mandatory = &v
	if x.Enforced != "" {
		e, err := parseBool(field+" enforced", x.Enforced)
		if err != nil {
			return nil, nil, err
		}
		enforced = &e
	}
	return mandatory, enforced, nil
}

func (x xmlProperty) property() (Property, error) {
	p := Property{
		Name:        x.Name,
		Title:       x.Title,
		Description: x.Description,
		Type:        strings.TrimSpace(x.Type),
		Default:     scalarPtr(x.Default),
	}
	var err error
	if p.Protected, err = parseBool("protected", x.Protected); err != nil {
		return p, err
	}
	if p.MultiValued, err = parseBool("multiple", x.Multiple); err != nil {
		return p, err
	}
	mandatory, enforced, err := x.Mandatory.flags("mandatory")
	if err != nil {
		return p, err
	}
	if mandatory != nil {
		p.Mandatory = *mandatory
	}
	if enforced != nil {
		p.MandatoryEnforced = *enforced
	}
	if x.Index != nil {
		idx := &Index{Tokenised: Scalar(strings.TrimSpace(x.Index.Tokenised))}
		if idx.Enabled, err = parseBool("index enabled", x.Index.Enabled); err != nil {
			return p, err
		}
		if idx.Atomic, err = parseBool("index atomic", x.Index.Atomic); err != nil {
			return p, err
		}
		if idx.Stored, err = parseBool("index stored", x.Index.Stored); err != nil {
			return p, err
		}
		p.Index = idx
	}
	for _, c := range x.Constraints {
		p.Constraints = append(p.Constraints, c.constraint())
	}
	return p, nil
}

func (x xmlEnd) end(field string) (End, error) {
	e := End{Class: strings.TrimSpace(x.Class), Role: x.Role}
	var err error
	if e.Many, err = parseBool(field+" many", x.Many); err != nil {
		return e, err
	}
	mandatory, enforced, err := x.Mandatory.flags(field + " mandatory")
	if err != nil {
		return e, err
	}
	if mandatory != nil {
		e.Mandatory = *mandatory
	}
	if enforced != nil {
		e.MandatoryEnforced = *enforced
	}
	return e, nil
}

func (x xmlAssociation) association() (Association, error) {
	a := Association{Name: x.Name, Title: x.Title, Description: x.Description}
	var err error
	if a.Protected, err = parseBool("protected", x.Protected); err != nil {
		return a, err
	}
	if a.Source, err = x.Source.end("source"); err != nil {
		return a, err
	}
	if a.Target, err = x.Target.end("target"); err != nil {
		return a, err
	}
	return a, nil
}

func (x xmlClass) class() (Class, error) {
	c := Class{
		Name:             x.Name,
		Title:            x.Title,
		Description:      x.Description,
		Parent:           strings.TrimSpace(x.Parent),
		MandatoryAspects: x.MandatoryAspects,
	}
	var err error
	if c.Archive, err = parseOptionalBool("archive", x.Archive); err != nil {
		return c, err
	}
	if c.IncludedInSuperTypeQuery, err = parseOptionalBool("includedInSuperTypeQuery", x.IncludedInSuperTypeQuery); err != nil {
		return c, err
	}
	for _, xp := range x.Properties {
		p, err := xp.property()
		if err != nil {
			return c, fmt.Errorf("property %s: %w", xp.Name, err)
		}
		c.Properties = append(c.Properties, p)
	}
	for _, xo := range x.Overrides {
		o := PropertyOverride{Name: xo.Name, Default: scalarPtr(xo.Default)}
		if o.Mandatory, o.MandatoryEnforced, err = xo.Mandatory.flags("mandatory"); err != nil {
			return c, fmt.Errorf("override %s: %w", xo.Name, err)
		}
		for _, xc := range xo.Constraints {
			o.Constraints = append(o.Constraints, xc.constraint())
		}
		c.Overrides = append(c.Overrides, o)
	}
	for _, xa := range x.Associations {
		a, err := xa.association()
		if err != nil {
			return c, fmt.Errorf("association %s: %w", xa.Name, err)
		}
		c.Associations = append(c.Associations, a)
	}
	for _, xa := range x.ChildAssociations {
		a, err := xa.association()
		if err != nil {
			return c, fmt.Errorf("child association %s: %w", xa.Name, err)
		}
		child := ChildAssociation{Association: a, ChildName: xa.ChildName}
		if child.Duplicate, err = parseOptionalBool("duplicate", xa.Duplicate); err != nil {
			return c, fmt.Errorf("child association %s: %w", xa.Name, err)
		}
		if child.PropagateTimestamps, err = parseBool("propagateTimestamps", xa.PropagateTimestamps); err != nil {
			return c, fmt.Errorf("child association %s: %w", xa.Name, err)
		}
		c.ChildAssociations = append(c.ChildAssociations, child)
	}
	return c, nil
}

func formatBool(v bool) string {
	return strconv.FormatBool(v)
}

func optionalBool(v *bool) *string {
	if v == nil {
		return nil
	}
	s := formatBool(*v)
	return &s
}

func stringPtr(s *Scalar) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}

func mandatoryOf(mandatory, enforced *bool) *xmlMandatory {
	if mandatory == nil && enforced == nil {
		return nil
	}
	x := &xmlMandatory{}
	if mandatory != nil {
		x.Value = formatBool(*mandatory)
	}
	if enforced != nil {
		x.Enforced = formatBool(*enforced)
	}
	return x
}

func constraintToXML(c Constraint) xmlConstraint {
	x := xmlConstraint{Name: c.Name, Ref: c.Ref, Type: c.Type, Title: c.Title, Description: c.Description}
	for _, p := range c.Parameters {
		xp := xmlParameter{Name: p.Name, Value: stringPtr(p.Value)}
		if p.IsList() {
			xp.List = &xmlList{Values: Strings(p.List)}
		}
		x.Parameters = append(x.Parameters, xp)
	}
	return x
}

func endToXML(e End) xmlEnd {
	x := xmlEnd{Class: e.Class, Role: e.Role, Many: formatBool(e.Many)}
	mandatory, enforced := e.Mandatory, e.MandatoryEnforced
	x.Mandatory = mandatoryOf(&mandatory, &enforced)
	return x
}

func associationToXML(a Association) xmlAssociation {
	return xmlAssociation{
		Name:        a.Name,
		Title:       a.Title,
		Description: a.Description,
		Protected:   formatBool(a.Protected),
		Source:      endToXML(a.Source),
		Target:      endToXML(a.Target),
	}
}

func classToXML(c Class) xmlClass {
	x := xmlClass{
		Name:                     c.Name,
		Title:                    c.Title,
		Description:              c.Description,
		Parent:                   c.Parent,
		Archive:                  optionalBool(c.Archive),
		IncludedInSuperTypeQuery: optionalBool(c.IncludedInSuperTypeQuery),
		MandatoryAspects:         c.MandatoryAspects,
	}
	for _, p := range c.Properties {
		mandatory, enforced := p.Mandatory, p.MandatoryEnforced
		xp := xmlProperty{
			Name:        p.Name,
			Title:       p.Title,
			Description: p.Description,
			Type:        p.Type,
			Protected:   formatBool(p.Protected),
			Mandatory:   mandatoryOf(&mandatory, &enforced),
			Multiple:    formatBool(p.MultiValued),
			Default:     stringPtr(p.Default),
		}
		if p.Index != nil {
			xp.Index = &xmlIndex{
				Enabled:   formatBool(p.Index.Enabled),
				Atomic:    formatBool(p.Index.Atomic),
				Stored:    formatBool(p.Index.Stored),
				Tokenised: string(p.Index.Tokenised),
			}
		}
		for _, pc := range p.Constraints {
			xp.Constraints = append(xp.Constraints, constraintToXML(pc))
		}
		x.Properties = append(x.Properties, xp)
	}
	for _, o := range c.Overrides {
		xo := xmlOverride{Name: o.Name, Mandatory: mandatoryOf(o.Mandatory, o.MandatoryEnforced), Default: stringPtr(o.Default)}
		for _, oc := range o.Constraints {
			xo.Constraints = append(xo.Constraints, constraintToXML(oc))
		}
		x.Overrides = append(x.Overrides, xo)
	}
	for _, a := range c.Associations {
		x.Associations = append(x.Associations, associationToXML(a))
	}
	for _, ca := range c.ChildAssociations {
		xa := associationToXML(ca.Association)
		xa.ChildName = ca.ChildName
		xa.Duplicate = optionalBool(ca.Duplicate)
		xa.PropagateTimestamps = formatBool(ca.PropagateTimestamps)
		x.ChildAssociations = append(x.ChildAssociations, xa)
	}
	return x
}

func fromModel(m *Model) xmlModel {
	x := xmlModel{
		Name:        m.Name,
		Description: m.Description,
		Author:      m.Author,
		Published:   m.Published,
		Version:     string(m.Version),
	}
	for _, ns := range m.Imports {
		x.Imports = append(x.Imports, xmlNamespace(ns))
	}
	for _, ns := range m.Namespaces {
		x.Namespaces = append(x.Namespaces, xmlNamespace(ns))
	}
	for _, dt := range m.DataTypes {
		x.DataTypes = append(x.DataTypes, xmlDataType(dt))
	}
	for _, c := range m.Constraints {
		x.Constraints = append(x.Constraints, constraintToXML(c))
	}
	for _, c := range m.Types {
		x.Types = append(x.Types, classToXML(c))
	}
	for _, c := range m.Aspects {
		x.Aspects = append(x.Aspects, classToXML(c))
	}
	return x
}
