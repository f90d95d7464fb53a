package inference

// UnknownFireType is shown for any label the map does not name.
const UnknownFireType = "Unknown"

// LabelMap translates classifier labels into display names.
type LabelMap map[int]string

// DefaultLabels names the three MODIS fire types the bundled model emits.
func DefaultLabels() LabelMap {
	return LabelMap{
		0: "Vegetation Fire",
		2: "Other Static Land Source",
		3: "Offshore Fire",
	}
}

// Name never fails: unmapped or blank entries resolve to UnknownFireType.
func (m LabelMap) Name(label int) string {
	if name, ok := m[label]; ok && name != "" {
		return name
	}
	return UnknownFireType
}
