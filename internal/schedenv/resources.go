package schedenv

import "fmt"

// Resource is a closed enumeration of maintenance skills/crafts, mirroring
// the SAP-style dashed codes (MTN-MECH, VEN-SCAF, ...) used throughout the
// offshore maintenance domain.
type Resource string

const (
	ResourceMtnMech  Resource = "MTN-MECH"
	ResourceMtnElec  Resource = "MTN-ELEC"
	ResourceMtnInst  Resource = "MTN-INST"
	ResourceMtnRope  Resource = "MTN-ROPE"
	ResourceMtnPipf  Resource = "MTN-PIPF"
	ResourceMtnCran  Resource = "MTN-CRAN"
	ResourceMtnRigg  Resource = "MTN-RIGG"
	ResourceMtnScaf  Resource = "MTN-SCAF"
	ResourceMtnPain  Resource = "MTN-PAIN"
	ResourceMtnTele  Resource = "MTN-TELE"
	ResourceMtnTurb  Resource = "MTN-TURB"
	ResourceMtnLagg  Resource = "MTN-LAGG"
	ResourceMtnRous  Resource = "MTN-ROUS"
	ResourceMtnSat   Resource = "MTN-SAT"
	ResourceVenInsp  Resource = "VEN-INSP"
	ResourceVenInst  Resource = "VEN-INST"
	ResourceVenElec  Resource = "VEN-ELEC"
	ResourceVenMech  Resource = "VEN-MECH"
	ResourceVenScaf  Resource = "VEN-SCAF"
	ResourceVenSubs  Resource = "VEN-SUBS"
	ResourceVenCran  Resource = "VEN-CRAN"
	ResourceVenRope  Resource = "VEN-ROPE"
	ResourceVenComm  Resource = "VEN-COMM"
	ResourceWellsupv Resource = "WELLSUPV"
	ResourceWellmain Resource = "WELLMAIN"
	ResourceWelltech Resource = "WELLTECH"
	ResourceInpSite  Resource = "INP-SITE"
	ResourceProdlabo Resource = "PRODLABO"
	ResourceProdtech Resource = "PRODTECH"
	ResourceQaqcmech Resource = "QAQCMECH"
	ResourceQaqcelec Resource = "QAQCELEC"
	ResourceMedic    Resource = "MEDIC"
	ResourceUnknown  Resource = "UNKNOWN"
)

// allResources is the closed set used for validation.
var allResources = map[Resource]struct{}{
	ResourceMtnMech: {}, ResourceMtnElec: {}, ResourceMtnInst: {}, ResourceMtnRope: {},
	ResourceMtnPipf: {}, ResourceMtnCran: {}, ResourceMtnRigg: {}, ResourceMtnScaf: {},
	ResourceMtnPain: {}, ResourceMtnTele: {}, ResourceMtnTurb: {}, ResourceMtnLagg: {},
	ResourceMtnRous: {}, ResourceMtnSat: {}, ResourceVenInsp: {}, ResourceVenInst: {},
	ResourceVenElec: {}, ResourceVenMech: {}, ResourceVenScaf: {}, ResourceVenSubs: {},
	ResourceVenCran: {}, ResourceVenRope: {}, ResourceVenComm: {}, ResourceWellsupv: {},
	ResourceWellmain: {}, ResourceWelltech: {}, ResourceInpSite: {}, ResourceProdlabo: {},
	ResourceProdtech: {}, ResourceQaqcmech: {}, ResourceQaqcelec: {}, ResourceMedic: {},
	ResourceUnknown: {},
}

// ParseResource validates and returns r as a Resource, or an error for an
// unrecognized SAP resource code. Unlike work-order status codes, the
// resource vocabulary is closed: an unknown code is a configuration error.
func ParseResource(s string) (Resource, error) {
	r := Resource(s)
	if _, ok := allResources[r]; !ok {
		return "", fmt.Errorf("unknown resource code %q", s)
	}
	return r, nil
}

// IsFMC reports whether the resource belongs to the "fabric maintenance
// crew" family (rope access, scaffolding, rigging, lagging, pipe fitting,
// painting), matching the original domain's is_fmc grouping.
func (r Resource) IsFMC() bool {
	switch r {
	case ResourceMtnRope, ResourceMtnScaf, ResourceMtnRigg, ResourceMtnLagg, ResourceMtnPipf, ResourceMtnPain:
		return true
	default:
		return false
	}
}

// IsVendor reports whether the resource is a vendor-supplied craft (VEN-*).
func (r Resource) IsVendor() bool {
	return len(r) >= 4 && r[:4] == "VEN-"
}
