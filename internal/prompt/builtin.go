package prompt

// Builtin base templates for the supported content types. These mirror the
// prompt set used for authorized security awareness training: every system
// prompt pins the educational framing, and every user prompt asks for
// training artifacts with fictitious details only.

// BuiltinTemplates returns the default template set.
func BuiltinTemplates() []*Template {
	return []*Template{
		emailPhishingTemplate(),
		smsPhishingTemplate(),
		voiceScriptTemplate(),
		pretextScenarioTemplate(),
	}
}

// RegisterBuiltins registers every builtin template into the library and
// freezes it.
func RegisterBuiltins(lib *Library) error {
	for _, tmpl := range BuiltinTemplates() {
		if err := lib.Register(tmpl); err != nil {
			return err
		}
	}
	lib.Freeze()
	return nil
}

func emailPhishingTemplate() *Template {
	return &Template{
		Name:        "email_phishing_v1",
		ContentType: ContentEmailPhishing,
		SystemPrompt: `You are a cybersecurity professional creating realistic phishing email content for authorized security awareness training and penetration testing. This content will be used in controlled environments to educate employees about social engineering tactics.

Key principles:
1. Create realistic social engineering content for training purposes
2. Include subtle indicators that trained security professionals would recognize
3. Focus on psychological triggers and urgency tactics used by real attackers
4. Use only fictitious names, companies, and example.com domains
5. Include educational elements that help recipients learn to identify threats

All content is for authorized security training in controlled environments.`,
		UserPrompt: `Create a phishing email for security training with the following parameters:

Target Profile:
- Role: {{.target_role}}
- Department: {{.target_department}}
- Seniority: {{.target_seniority}}
- Technical Level: {{.target_technical_level}}
- Security Awareness: {{.security_awareness_level}}/10

Scenario Context:
- Threat Type: {{.threat_type}}
- Delivery Vector: {{.delivery_vector}}
- Difficulty Level: {{.difficulty_level}}/10
- Urgency Level: {{.urgency_level}}/10
- Tone: {{.tone}}
- Stage: {{.stage_type}}

Stage Directive: {{.stage_directive}}
Psychological Triggers: {{.psychological_triggers}}
Social Engineering Tactics: {{.tactics}}
Company Context: {{.company_name}}
Prior Stage Summary: {{.prior_stage_summary}}
Additional Context: {{.custom_context}}

Create a realistic phishing email that includes a subject line, fictitious
sender information, an email body with social engineering elements, and a
call-to-action. Include subtle red flags that security-aware employees might
notice, and close with brief training notes explaining the techniques used.`,
		Variables: []string{
			"target_role", "target_department", "target_seniority",
			"target_technical_level", "security_awareness_level",
			"threat_type", "delivery_vector", "difficulty_level",
			"urgency_level", "tone", "stage_type", "stage_directive",
			"psychological_triggers", "tactics", "company_name",
			"prior_stage_summary", "custom_context",
		},
		Constraints: []string{
			"Content must be appropriate for corporate security training",
			"Include educational elements and red flags",
			"Use fictitious sender addresses and example.com domains",
			"Include clear training context markers",
		},
	}
}

func smsPhishingTemplate() *Template {
	return &Template{
		Name:        "sms_phishing_v1",
		ContentType: ContentSMSPhishing,
		SystemPrompt: `You are a cybersecurity professional creating realistic SMS phishing content for authorized security awareness training. Create convincing SMS phishing messages that demonstrate real attack patterns while maintaining educational value.

Focus on:
1. Common SMS phishing tactics (urgency, authority, fear)
2. Mobile-specific attack vectors (links, apps, verification codes)
3. Realistic but safe content using only example.com domains
4. Educational red flags that recipients should recognize

All content is for authorized security training in controlled environments.`,
		UserPrompt: `Create an SMS phishing message for security training:

Target Profile:
- Role: {{.target_role}}
- Technical Level: {{.target_technical_level}}
- Security Awareness: {{.security_awareness_level}}/10

Scenario:
- Threat Type: {{.threat_type}}
- Difficulty: {{.difficulty_level}}/10
- Urgency: {{.urgency_level}}/10
- Stage: {{.stage_type}}

Stage Directive: {{.stage_directive}}
Tactics: {{.tactics}}
Triggers: {{.psychological_triggers}}
Company: {{.company_name}}
Prior Stage Summary: {{.prior_stage_summary}}

Create a realistic SMS with a sender, compelling message content, and a
call-to-action. Keep it concise (under 160 characters where possible) and
finish with brief training notes on the techniques demonstrated.`,
		Variables: []string{
			"target_role", "target_technical_level", "security_awareness_level",
			"threat_type", "difficulty_level", "urgency_level", "stage_type",
			"stage_directive", "tactics", "psychological_triggers",
			"company_name", "prior_stage_summary",
		},
		Constraints: []string{
			"Keep message under 160 characters when possible",
			"Include realistic mobile attack patterns",
			"Educational red flags included",
		},
	}
}

func voiceScriptTemplate() *Template {
	return &Template{
		Name:        "voice_script_v1",
		ContentType: ContentVoiceScript,
		SystemPrompt: `You are creating voice-based social engineering scripts for authorized security training. These scripts will be used by security professionals to conduct controlled vishing simulations.

Focus on:
1. Realistic conversation flow and dialogue
2. Social engineering tactics specific to voice calls
3. Common pretext scenarios used by attackers
4. Educational elements for security awareness training

All scripts are for authorized security training purposes in controlled environments.`,
		UserPrompt: `Create a vishing script for security training:

Target Profile:
- Role: {{.target_role}}
- Department: {{.target_department}}
- Seniority: {{.target_seniority}}
- Technical Level: {{.target_technical_level}}

Scenario:
- Threat Type: {{.threat_type}}
- Difficulty: {{.difficulty_level}}/10
- Urgency: {{.urgency_level}}/10
- Stage: {{.stage_type}}

Stage Directive: {{.stage_directive}}
Tactics: {{.tactics}}
Triggers: {{.psychological_triggers}}
Prior Stage Summary: {{.prior_stage_summary}}
Additional Context: {{.custom_context}}

Create a realistic vishing script including an opening, pretext
establishment, information gathering questions, urgency tactics, and a
closing. Format as a conversation script with caller directions, ending with
training notes on techniques and red flags to discuss.`,
		Variables: []string{
			"target_role", "target_department", "target_seniority",
			"target_technical_level", "threat_type", "difficulty_level",
			"urgency_level", "stage_type", "stage_directive", "tactics",
			"psychological_triggers", "prior_stage_summary", "custom_context",
		},
		Constraints: []string{
			"Realistic conversation flow",
			"Include training discussion points",
		},
	}
}

func pretextScenarioTemplate() *Template {
	return &Template{
		Name:        "pretext_scenario_v1",
		ContentType: ContentPretextScenario,
		SystemPrompt: `You are developing pretext scenarios for authorized social engineering training. These scenarios provide realistic backgrounds and storylines that security professionals can use during controlled penetration testing exercises.

The scenarios should be:
1. Believable and well-researched
2. Appropriate for corporate environments
3. Educational about common attack patterns
4. Built entirely from fictitious details

All scenarios are for authorized security training and testing purposes.`,
		UserPrompt: `Create a pretext scenario for security training:

Target Profile:
- Role: {{.target_role}}
- Department: {{.target_department}}
- Company: {{.company_name}}
- Industry: {{.target_industry}}

Scenario Parameters:
- Threat Type: {{.threat_type}}
- Delivery Vector: {{.delivery_vector}}
- Difficulty: {{.difficulty_level}}/10
- Stage: {{.stage_type}}

Stage Directive: {{.stage_directive}}
Social Engineering Elements:
- Tactics: {{.tactics}}
- Psychological Triggers: {{.psychological_triggers}}
- MITRE Techniques: {{.mitre_techniques}}

Prior Stage Summary: {{.prior_stage_summary}}
Additional Context: {{.custom_context}}

Create a detailed pretext scenario covering the background story, supporting
details that make the story believable, an execution plan, and required
props or resources. Conclude with the training value: what security concepts
this scenario teaches and what red flags defenders should watch for.`,
		Variables: []string{
			"target_role", "target_department", "company_name",
			"target_industry", "threat_type", "delivery_vector",
			"difficulty_level", "stage_type", "stage_directive", "tactics",
			"psychological_triggers", "mitre_techniques",
			"prior_stage_summary", "custom_context",
		},
		Constraints: []string{
			"Detailed and realistic scenarios",
			"Educational value clearly explained",
		},
	}
}
