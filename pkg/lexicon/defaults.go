package lexicon

// defaultLexicon builds the built-in patient-support vocabulary. Deployments
// extend it with user-defined topics and phrases via LoadFile.
func defaultLexicon() *Lexicon {
	return &Lexicon{
		PositiveWords: []string{
			"great", "thank", "amazing", "wonderful", "perfect", "excellent",
			"appreciate", "helpful", "glad", "relieved", "happy", "fantastic",
			"awesome", "good news", "feeling better", "that helps",
		},
		NegativeWords: []string{
			"frustrat", "terrible", "awful", "angry", "upset", "worried",
			"confus", "annoy", "disappoint", "horrible", "unacceptable",
			"hate", "worst", "painful", "scared", "stressed", "ridiculous",
		},
		Friction: []FrictionIndicator{
			// Clinical obstacles
			{Phrase: "severe", Barrier: BarrierClinical, Severity: SeverityHigh},
			{Phrase: "side effect", Barrier: BarrierClinical, Severity: SeverityMedium},
			{Phrase: "nausea", Barrier: BarrierClinical, Severity: SeverityMedium},
			{Phrase: "dizzy", Barrier: BarrierClinical, Severity: SeverityMedium},
			{Phrase: "rash", Barrier: BarrierClinical, Severity: SeverityMedium},
			{Phrase: "reaction", Barrier: BarrierClinical, Severity: SeverityMedium},
			{Phrase: "redness", Barrier: BarrierClinical, Severity: SeverityLow},
			{Phrase: "injection site", Barrier: BarrierClinical, Severity: SeverityLow},

			// Affordability obstacles
			{Phrase: "can't afford", Barrier: BarrierAffordability, Severity: SeverityHigh},
			{Phrase: "cannot afford", Barrier: BarrierAffordability, Severity: SeverityHigh},
			{Phrase: "too expensive", Barrier: BarrierAffordability, Severity: SeverityHigh},
			{Phrase: "out of pocket", Barrier: BarrierAffordability, Severity: SeverityMedium},
			{Phrase: "copay", Barrier: BarrierAffordability, Severity: SeverityMedium},

			// Insurance obstacles
			{Phrase: "denied", Barrier: BarrierInsurance, Severity: SeverityHigh},
			{Phrase: "prior authorization", Barrier: BarrierInsurance, Severity: SeverityHigh},
			{Phrase: "not covered", Barrier: BarrierInsurance, Severity: SeverityHigh},
			{Phrase: "coverage", Barrier: BarrierInsurance, Severity: SeverityMedium},
			{Phrase: "insurance", Barrier: BarrierInsurance, Severity: SeverityLow},

			// Access obstacles
			{Phrase: "out of stock", Barrier: BarrierAccess, Severity: SeverityHigh},
			{Phrase: "backorder", Barrier: BarrierAccess, Severity: SeverityHigh},
			{Phrase: "no appointment", Barrier: BarrierAccess, Severity: SeverityMedium},
			{Phrase: "waitlist", Barrier: BarrierAccess, Severity: SeverityMedium},
			{Phrase: "can't pick up", Barrier: BarrierAccess, Severity: SeverityMedium},

			// Process obstacles
			{Phrase: "still waiting", Barrier: BarrierProcess, Severity: SeverityHigh},
			{Phrase: "paperwork", Barrier: BarrierProcess, Severity: SeverityMedium},
			{Phrase: "on hold", Barrier: BarrierProcess, Severity: SeverityMedium},
			{Phrase: "transferred", Barrier: BarrierProcess, Severity: SeverityLow},

			// Support quality obstacles
			{Phrase: "nobody called", Barrier: BarrierSupportQuality, Severity: SeverityHigh},
			{Phrase: "never heard back", Barrier: BarrierSupportQuality, Severity: SeverityHigh},
			{Phrase: "rude", Barrier: BarrierSupportQuality, Severity: SeverityHigh},
			{Phrase: "unhelpful", Barrier: BarrierSupportQuality, Severity: SeverityMedium},
		},
		PivotalPhrase: []string{
			"thank you", "that helps", "approved", "confirmed", "i can help",
			"let me help", "we can schedule", "sounds good", "i'll take care",
			"glad to help", "enrolled", "you're welcome",
		},
		Topics: []Topic{
			{
				ID:             "side-effects",
				Name:           "Side Effects",
				Category:       CategoryClinical,
				Keywords:       []string{"side effect", "redness", "injection site", "nausea", "dizzy", "rash", "reaction", "headache"},
				BuiltIn:        true,
				AlertThreshold: 25,
				PlaybookIDs:    []string{"pb-safety-monitoring"},
			},
			{
				ID:          "refill",
				Name:        "Refills",
				Category:    CategoryOperational,
				Keywords:    []string{"refill", "prescription", "pharmacy", "running low"},
				BuiltIn:     true,
				PlaybookIDs: []string{"pb-adherence"},
			},
			{
				ID:             "insurance-coverage",
				Name:           "Insurance & Coverage",
				Category:       CategoryAccess,
				Keywords:       []string{"insurance", "prior authorization", "coverage", "denied", "claim"},
				BuiltIn:        true,
				AlertThreshold: 20,
				PlaybookIDs:    []string{"pb-access-barriers"},
			},
			{
				ID:          "affordability",
				Name:        "Affordability",
				Category:    CategoryAccess,
				Keywords:    []string{"afford", "cost", "copay", "out of pocket", "expensive", "financial assistance"},
				BuiltIn:     true,
				PlaybookIDs: []string{"pb-access-barriers"},
			},
			{
				ID:          "adherence",
				Name:        "Adherence",
				Category:    CategoryClinical,
				Keywords:    []string{"missed dose", "skipped", "dosing", "forgot to take"},
				BuiltIn:     true,
				PlaybookIDs: []string{"pb-adherence"},
			},
			{
				ID:       "enrollment",
				Name:     "Enrollment",
				Category: CategoryOperational,
				Keywords: []string{"enroll", "sign up", "onboard", "welcome kit"},
				BuiltIn:  true,
			},
			{
				ID:       "shipping-delivery",
				Name:     "Shipping & Delivery",
				Category: CategoryOperational,
				Keywords: []string{"shipping", "delivery", "tracking", "shipment"},
				BuiltIn:  true,
			},
			{
				ID:       "agent-experience",
				Name:     "Agent Experience",
				Category: CategoryExperience,
				Keywords: []string{"rude", "unhelpful", "wait time", "on hold", "great service"},
				BuiltIn:  true,
			},
			{
				ID:       "privacy-consent",
				Name:     "Privacy & Consent",
				Category: CategoryCompliance,
				Keywords: []string{"consent", "privacy", "hipaa", "recorded line"},
				BuiltIn:  true,
			},
		},
	}
}
