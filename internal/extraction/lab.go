package extraction

func parseLab(b *builder) *LabResult {
	rep := &LabResult{
		PanelName:      b.strField("panel_name", 1),
		CollectionDate: b.dateField("collection_date", 1),
	}

	raw, ok := b.value("tests")
	items, isArr := raw.([]any)
	if !ok || !isArr || len(items) == 0 {
		b.record("tests", 1, 0, false)
		return rep
	}

	// Per-test confidences are not reported individually; the model's
	// blanket "tests" score covers the array.
	blanket := b.conf("tests")
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		test := parseLabTest(m, blanket)
		if test != nil {
			rep.Tests = append(rep.Tests, *test)
		}
	}
	b.record("tests", 1, blanket, len(rep.Tests) > 0)
	return rep
}

// parseLabTest builds one analyte entry. A test without at least a name and a
// numeric value is dropped.
func parseLabTest(m map[string]any, conf float64) *LabTest {
	name, okName := asString(m["name"])
	val, okVal := asNumber(m["value"])
	if !okName || !okVal {
		return nil
	}

	t := &LabTest{
		Name:  newField(name, conf),
		Value: newField(val, conf),
	}
	if u, ok := asString(m["unit"]); ok {
		t.Unit = newField(u, conf)
	} else {
		t.Unit = absent[string]()
	}
	if r, ok := asString(m["reference_range"]); ok {
		t.ReferenceRange = newField(r, conf)
	} else {
		t.ReferenceRange = absent[string]()
	}
	if ab, ok := asBool(m["abnormal"]); ok {
		t.Abnormal = newField(ab, conf)
	} else {
		t.Abnormal = absent[bool]()
	}
	return t
}
