package inventory

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/endorses/routefilter/internal/pkg/filtering"
	"github.com/endorses/routefilter/internal/pkg/logger"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Document is the YAML layout of an inventory file
type Document struct {
	Devices        []DeviceYAML        `yaml:"devices,omitempty"`
	VRFs           []VRFYAML           `yaml:"vrfs,omitempty"`
	Interfaces     []InterfaceYAML     `yaml:"interfaces,omitempty"`
	StaticRoutes   []StaticRouteYAML   `yaml:"static_routes,omitempty"`
	OSPFInstances  []OSPFInstanceYAML  `yaml:"ospf_instances,omitempty"`
	OSPFAreas      []OSPFAreaYAML      `yaml:"ospf_areas,omitempty"`
	OSPFInterfaces []OSPFInterfaceYAML `yaml:"ospf_interfaces,omitempty"`
}

// References in the file are either a UUID or the unique display name of
// the referenced record.

type DeviceYAML struct {
	ID   string `yaml:"id,omitempty"`
	Name string `yaml:"name"`
}

type VRFYAML struct {
	ID   string `yaml:"id,omitempty"`
	Name string `yaml:"name"`
	RD   string `yaml:"rd,omitempty"`
}

type InterfaceYAML struct {
	ID     string `yaml:"id,omitempty"`
	Name   string `yaml:"name"`
	Device string `yaml:"device"`
	Type   string `yaml:"type,omitempty"`
}

type StaticRouteYAML struct {
	ID          string   `yaml:"id,omitempty"`
	Name        string   `yaml:"name"`
	Devices     []string `yaml:"devices,omitempty"`
	VRF         string   `yaml:"vrf,omitempty"`
	Prefix      string   `yaml:"prefix"`
	NextHop     string   `yaml:"next_hop"`
	Metric      *int     `yaml:"metric,omitempty"`
	Permanent   bool     `yaml:"permanent,omitempty"`
	Description string   `yaml:"description,omitempty"`
}

type OSPFInstanceYAML struct {
	ID          string `yaml:"id,omitempty"`
	Name        string `yaml:"name"`
	Device      string `yaml:"device"`
	VRF         string `yaml:"vrf,omitempty"`
	RouterID    string `yaml:"router_id"`
	ProcessID   int    `yaml:"process_id"`
	Description string `yaml:"description,omitempty"`
}

type OSPFAreaYAML struct {
	ID          string `yaml:"id,omitempty"`
	AreaID      string `yaml:"area_id"`
	AreaType    string `yaml:"area_type,omitempty"`
	Description string `yaml:"description,omitempty"`
}

type OSPFInterfaceYAML struct {
	ID             string `yaml:"id,omitempty"`
	Interface      string `yaml:"interface"`
	Instance       string `yaml:"instance"`
	Area           string `yaml:"area"`
	Passive        bool   `yaml:"passive,omitempty"`
	Priority       int    `yaml:"priority,omitempty"`
	BFD            bool   `yaml:"bfd,omitempty"`
	Authentication string `yaml:"authentication,omitempty"`
}

// LoadError describes an invalid entry of an inventory file.
type LoadError struct {
	Path    string
	Section string
	Index   int
	Err     error
}

func (e *LoadError) Error() string {
	loc := fmt.Sprintf("%s[%d]", e.Section, e.Index)
	if e.Path != "" {
		loc = e.Path + ": " + loc
	}
	return fmt.Sprintf("%s: %v", loc, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

var (
	// File lock for atomic writes
	fileLock sync.Mutex
)

// DefaultPath returns the default inventory location
func DefaultPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "inventory.yaml" // Fallback to local directory
	}
	return filepath.Join(homeDir, ".config", "routefilter", "inventory.yaml")
}

// LoadFile reads and validates an inventory file. A missing file yields an
// empty snapshot.
func LoadFile(path string) (*Snapshot, error) {
	if path == "" {
		path = DefaultPath()
	}

	logger.Debug("Loading inventory", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("Inventory file does not exist, starting empty", "path", path)
			return Empty(), nil
		}
		return nil, fmt.Errorf("failed to read inventory file: %w", err)
	}

	snap, err := parse(data, path)
	if err != nil {
		return nil, err
	}

	logger.Info("Inventory loaded", "path", path, "records", snap.Counts())
	for _, d := range snap.Dangling() {
		logger.Warn("Dangling reference", "reference", d.String())
	}
	return snap, nil
}

// Parse decodes an inventory document
func Parse(data []byte) (*Snapshot, error) {
	return parse(data, "")
}

func parse(data []byte, path string) (*Snapshot, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse inventory YAML: %w", err)
	}
	return doc.build(path)
}

// build validates the document, resolves references and assembles a
// snapshot. Every invalid entry is reported.
func (doc *Document) build(path string) (*Snapshot, error) {
	l := &loader{path: path, b: NewBuilder(), names: make(map[string]map[string][]uuid.UUID)}

	for i, d := range doc.Devices {
		l.add("devices", i, func() (Entity, error) { return l.device(d) })
	}
	for i, v := range doc.VRFs {
		l.add("vrfs", i, func() (Entity, error) { return l.vrf(v) })
	}
	for i, iface := range doc.Interfaces {
		l.add("interfaces", i, func() (Entity, error) { return l.iface(iface) })
	}
	for i, r := range doc.StaticRoutes {
		l.add("static_routes", i, func() (Entity, error) { return l.staticRoute(r) })
	}
	for i, o := range doc.OSPFInstances {
		l.add("ospf_instances", i, func() (Entity, error) { return l.ospfInstance(o) })
	}
	for i, a := range doc.OSPFAreas {
		l.add("ospf_areas", i, func() (Entity, error) { return l.ospfArea(a) })
	}
	for i, o := range doc.OSPFInterfaces {
		l.add("ospf_interfaces", i, func() (Entity, error) { return l.ospfInterface(o) })
	}

	if len(l.errs) > 0 {
		if len(l.errs) == 1 {
			return nil, l.errs[0]
		}
		return nil, errors.Join(l.errs...)
	}
	return l.b.Build(), nil
}

// loader resolves file references against the records added so far
type loader struct {
	path  string
	b     *Builder
	names map[string]map[string][]uuid.UUID
	errs  []error
}

func (l *loader) add(section string, index int, build func() (Entity, error)) {
	e, err := build()
	if err == nil {
		err = l.b.Add(e)
	}
	if err != nil {
		l.errs = append(l.errs, &LoadError{Path: l.path, Section: section, Index: index, Err: err})
		return
	}

	kind := e.Kind()
	if l.names[kind] == nil {
		l.names[kind] = make(map[string][]uuid.UUID)
	}
	id := uuid.MustParse(e.Key())
	for _, name := range e.Values("name") {
		l.names[kind][name] = append(l.names[kind][name], id)
	}
}

// id parses an explicit id or assigns a fresh one
func (l *loader) id(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.New(), nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// ref resolves a reference. Empty means null. UUIDs are taken as given;
// names must identify exactly one record.
func (l *loader) ref(field, kind, raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, nil
	}
	if id, err := uuid.Parse(raw); err == nil {
		return id, nil
	}

	name := raw
	if kind == KindOSPFArea {
		if normalized, err := filtering.NormalizeDottedQuad(raw); err == nil {
			name = normalized
		}
	}

	ids := l.names[kind][name]
	switch len(ids) {
	case 0:
		return uuid.Nil, fmt.Errorf("%s: unknown %s %q", field, kind, raw)
	case 1:
		return ids[0], nil
	default:
		return uuid.Nil, fmt.Errorf("%s: ambiguous %s name %q matches %d records, use the id", field, kind, raw, len(ids))
	}
}

func (l *loader) requiredRef(field, kind, raw string) (uuid.UUID, error) {
	if strings.TrimSpace(raw) == "" {
		return uuid.Nil, fmt.Errorf("%s is required", field)
	}
	return l.ref(field, kind, raw)
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

func (l *loader) device(d DeviceYAML) (Entity, error) {
	if err := required("name", d.Name); err != nil {
		return nil, err
	}
	id, err := l.id(d.ID)
	if err != nil {
		return nil, err
	}
	return &Device{ID: id, Name: d.Name}, nil
}

func (l *loader) vrf(v VRFYAML) (Entity, error) {
	if err := required("name", v.Name); err != nil {
		return nil, err
	}
	id, err := l.id(v.ID)
	if err != nil {
		return nil, err
	}
	return &VRF{ID: id, Name: v.Name, RD: v.RD}, nil
}

func (l *loader) iface(i InterfaceYAML) (Entity, error) {
	if err := required("name", i.Name); err != nil {
		return nil, err
	}
	id, err := l.id(i.ID)
	if err != nil {
		return nil, err
	}
	device, err := l.requiredRef("device", KindDevice, i.Device)
	if err != nil {
		return nil, err
	}
	return &Interface{ID: id, Name: i.Name, Device: device, Type: i.Type}, nil
}

func (l *loader) staticRoute(r StaticRouteYAML) (Entity, error) {
	if err := required("name", r.Name); err != nil {
		return nil, err
	}
	id, err := l.id(r.ID)
	if err != nil {
		return nil, err
	}

	route := &StaticRoute{
		ID:          id,
		Name:        r.Name,
		Metric:      DefaultMetric,
		Permanent:   r.Permanent,
		Description: r.Description,
	}

	for _, raw := range r.Devices {
		device, err := l.requiredRef("devices", KindDevice, raw)
		if err != nil {
			return nil, err
		}
		route.Devices = append(route.Devices, device)
	}

	if route.VRF, err = l.ref("vrf", KindVRF, r.VRF); err != nil {
		return nil, err
	}

	prefix, err := netip.ParsePrefix(strings.TrimSpace(r.Prefix))
	if err != nil {
		return nil, fmt.Errorf("prefix: invalid %q", r.Prefix)
	}
	route.Prefix = prefix.Masked()

	if route.NextHop, err = netip.ParseAddr(strings.TrimSpace(r.NextHop)); err != nil {
		return nil, fmt.Errorf("next_hop: invalid %q", r.NextHop)
	}

	if r.Metric != nil {
		if *r.Metric < 0 {
			return nil, fmt.Errorf("metric: must not be negative")
		}
		route.Metric = *r.Metric
	}

	return route, nil
}

func (l *loader) ospfInstance(o OSPFInstanceYAML) (Entity, error) {
	if err := required("name", o.Name); err != nil {
		return nil, err
	}
	id, err := l.id(o.ID)
	if err != nil {
		return nil, err
	}

	inst := &OSPFInstance{
		ID:          id,
		Name:        o.Name,
		ProcessID:   o.ProcessID,
		Description: o.Description,
	}
	if o.ProcessID < 0 {
		return nil, fmt.Errorf("process_id: must not be negative")
	}
	if inst.Device, err = l.requiredRef("device", KindDevice, o.Device); err != nil {
		return nil, err
	}
	if inst.VRF, err = l.ref("vrf", KindVRF, o.VRF); err != nil {
		return nil, err
	}

	routerID, err := filtering.NormalizeDottedQuad(o.RouterID)
	if err != nil {
		return nil, fmt.Errorf("router_id: %w", err)
	}
	inst.RouterID = netip.MustParseAddr(routerID)

	return inst, nil
}

func (l *loader) ospfArea(a OSPFAreaYAML) (Entity, error) {
	id, err := l.id(a.ID)
	if err != nil {
		return nil, err
	}

	areaID, err := filtering.NormalizeDottedQuad(a.AreaID)
	if err != nil {
		return nil, fmt.Errorf("area_id: %w", err)
	}
	if len(l.names[KindOSPFArea][areaID]) > 0 {
		return nil, fmt.Errorf("area_id: duplicate area %s", areaID)
	}

	areaType := AreaTypeStandard
	if a.AreaType != "" {
		types, err := filtering.Choice(AreaTypes()...)(a.AreaType, nil)
		if err != nil {
			return nil, fmt.Errorf("area_type: %w", err)
		}
		areaType = types[0]
	}

	return &OSPFArea{
		ID:          id,
		AreaID:      netip.MustParseAddr(areaID),
		AreaType:    areaType,
		Description: a.Description,
	}, nil
}

func (l *loader) ospfInterface(o OSPFInterfaceYAML) (Entity, error) {
	id, err := l.id(o.ID)
	if err != nil {
		return nil, err
	}

	oi := &OSPFInterface{
		ID:             id,
		Passive:        o.Passive,
		Priority:       o.Priority,
		BFD:            o.BFD,
		Authentication: o.Authentication,
	}
	if oi.Interface, err = l.requiredRef("interface", KindInterface, o.Interface); err != nil {
		return nil, err
	}
	if oi.Instance, err = l.requiredRef("instance", KindOSPFInstance, o.Instance); err != nil {
		return nil, err
	}
	if oi.Area, err = l.requiredRef("area", KindOSPFArea, o.Area); err != nil {
		return nil, err
	}
	return oi, nil
}

// DocumentFrom converts a snapshot back to its file form. References are
// written as ids.
func DocumentFrom(s *Snapshot) *Document {
	doc := &Document{}

	for _, d := range All[*Device](s, KindDevice) {
		doc.Devices = append(doc.Devices, DeviceYAML{ID: d.ID.String(), Name: d.Name})
	}
	for _, v := range All[*VRF](s, KindVRF) {
		doc.VRFs = append(doc.VRFs, VRFYAML{ID: v.ID.String(), Name: v.Name, RD: v.RD})
	}
	for _, i := range All[*Interface](s, KindInterface) {
		doc.Interfaces = append(doc.Interfaces, InterfaceYAML{
			ID:     i.ID.String(),
			Name:   i.Name,
			Device: idString(i.Device),
			Type:   i.Type,
		})
	}
	for _, r := range All[*StaticRoute](s, KindStaticRoute) {
		metric := r.Metric
		ry := StaticRouteYAML{
			ID:          r.ID.String(),
			Name:        r.Name,
			VRF:         idString(r.VRF),
			Prefix:      r.Prefix.String(),
			NextHop:     r.NextHop.String(),
			Metric:      &metric,
			Permanent:   r.Permanent,
			Description: r.Description,
		}
		for _, d := range r.Devices {
			ry.Devices = append(ry.Devices, d.String())
		}
		doc.StaticRoutes = append(doc.StaticRoutes, ry)
	}
	for _, o := range All[*OSPFInstance](s, KindOSPFInstance) {
		doc.OSPFInstances = append(doc.OSPFInstances, OSPFInstanceYAML{
			ID:          o.ID.String(),
			Name:        o.Name,
			Device:      idString(o.Device),
			VRF:         idString(o.VRF),
			RouterID:    o.RouterID.String(),
			ProcessID:   o.ProcessID,
			Description: o.Description,
		})
	}
	for _, a := range All[*OSPFArea](s, KindOSPFArea) {
		doc.OSPFAreas = append(doc.OSPFAreas, OSPFAreaYAML{
			ID:          a.ID.String(),
			AreaID:      a.AreaID.String(),
			AreaType:    a.AreaType,
			Description: a.Description,
		})
	}
	for _, o := range All[*OSPFInterface](s, KindOSPFInterface) {
		doc.OSPFInterfaces = append(doc.OSPFInterfaces, OSPFInterfaceYAML{
			ID:             o.ID.String(),
			Interface:      idString(o.Interface),
			Instance:       idString(o.Instance),
			Area:           idString(o.Area),
			Passive:        o.Passive,
			Priority:       o.Priority,
			BFD:            o.BFD,
			Authentication: o.Authentication,
		})
	}

	return doc
}

func idString(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}

// SaveFile writes the snapshot to path with an atomic write
func SaveFile(path string, s *Snapshot) error {
	if path == "" {
		path = DefaultPath()
	}

	logger.Debug("Saving inventory", "path", path)

	// Lock for atomic write
	fileLock.Lock()
	defer fileLock.Unlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create inventory directory: %w", err)
	}

	data, err := yaml.Marshal(DocumentFrom(s))
	if err != nil {
		return fmt.Errorf("failed to marshal inventory to YAML: %w", err)
	}

	// Atomic write: write to temp file, then rename
	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp inventory file: %w", err)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile) // Cleanup temp file on error
		return fmt.Errorf("failed to rename temp inventory file: %w", err)
	}

	logger.Debug("Inventory saved", "path", path, "records", s.Counts())
	return nil
}
