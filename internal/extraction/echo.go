package extraction

var diastolicGrades = []string{"normal", "grade i", "grade ii", "grade iii", "indeterminate"}

func parseEcho(b *builder) *EchoReport {
	rep := &EchoReport{
		StudyDate:   b.dateField("study_date", 1),
		LVEF:        b.numField("lvef", 1),
		LVIDd:       b.numField("lvidd", 1),
		LADiameter:  b.numField("la_diameter", 1),
		RVSP:        b.numField("rvsp", 1),
		DiastolicFn: b.enumField("diastolic_function", 1, diastolicGrades),
		Pericardium: b.strField("pericardium", 1),
		KeyFindings: b.stringsField("key_findings", 1),
	}

	valves := &EchoValves{
		Aortic:    parseValve(b, "valves.aortic"),
		Mitral:    parseValve(b, "valves.mitral"),
		Tricuspid: parseValve(b, "valves.tricuspid"),
		Pulmonary: parseValve(b, "valves.pulmonary"),
	}
	if valves.Aortic != nil || valves.Mitral != nil || valves.Tricuspid != nil || valves.Pulmonary != nil {
		rep.Valves = valves
	}
	return rep
}

// parseValve builds one valve sub-record. A sub-record whose every leaf is
// absent collapses to nil.
func parseValve(b *builder, prefix string) *ValveAssessment {
	v := &ValveAssessment{
		Stenosis:      b.enumField(prefix+".stenosis", 1, valveGrades),
		Regurgitation: b.enumField(prefix+".regurgitation", 1, valveGrades),
		MeanGradient:  b.numField(prefix+".mean_gradient", 1),
	}
	if v.empty() {
		return nil
	}
	return v
}
