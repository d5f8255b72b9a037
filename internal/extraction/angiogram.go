package extraction

var (
	accessSites = []string{"radial", "femoral", "brachial"}
	dominances  = []string{"right", "left", "codominant"}
)

// TIMI flow is a closed 0–3 grade.
const (
	timiMin = 0
	timiMax = 3
)

func parseAngiogram(b *builder) *AngiogramReport {
	rep := &AngiogramReport{
		StudyDate:   b.dateField("study_date", 1),
		AccessSite:  b.enumField("access_site", 1, accessSites),
		Dominance:   b.enumField("dominance", 1, dominances),
		KeyFindings: b.stringsField("key_findings", 1),
	}

	vessels := &AngiogramVessels{
		LeftMain:   parseVessel(b, "vessels.left_main"),
		LAD:        parseVessel(b, "vessels.lad"),
		Circumflex: parseVessel(b, "vessels.circumflex"),
		RCA:        parseVessel(b, "vessels.rca"),
	}
	if vessels.LeftMain != nil || vessels.LAD != nil || vessels.Circumflex != nil || vessels.RCA != nil {
		rep.Vessels = vessels
	}
	return rep
}

func parseVessel(b *builder, prefix string) *VesselFinding {
	v := &VesselFinding{
		StenosisPercent: b.numField(prefix+".stenosis_percent", 1),
		TIMIFlow:        b.boundedIntField(prefix+".timi_flow", 1, timiMin, timiMax),
	}
	if v.empty() {
		return nil
	}
	return v
}
