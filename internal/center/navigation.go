package center

// Capabilities is the capability set navigation decisions are made from.
type Capabilities struct {
	Authenticated bool
	Admin         bool
}

// CapabilitiesOf derives the capability set of a session snapshot.
func CapabilitiesOf(s Session) Capabilities {
	return Capabilities{Authenticated: s.IsAuthenticated(), Admin: s.IsAdmin()}
}

// Screen names a top-level destination of the client.
type Screen string

const (
	ScreenLogin           Screen = "login"
	ScreenRegister        Screen = "register"
	ScreenHome            Screen = "home"
	ScreenCampaigns       Screen = "campaigns"
	ScreenMyApplications  Screen = "my_applications"
	ScreenAdminCampaigns  Screen = "admin_campaigns"
	ScreenProfile         Screen = "profile"
	ScreenCreateCampaign  Screen = "create_campaign"
	ScreenApplicationList Screen = "applications_list"
)

// Screens returns the destinations reachable with caps.
func Screens(caps Capabilities) []Screen {
	if !caps.Authenticated {
		return []Screen{ScreenLogin, ScreenRegister}
	}
	if caps.Admin {
		return []Screen{ScreenHome, ScreenCampaigns, ScreenAdminCampaigns, ScreenProfile, ScreenCreateCampaign, ScreenApplicationList}
	}
	return []Screen{ScreenHome, ScreenCampaigns, ScreenMyApplications, ScreenProfile}
}

// Allows reports whether screen is reachable with caps.
func (caps Capabilities) Allows(screen Screen) bool {
	for _, s := range Screens(caps) {
		if s == screen {
			return true
		}
	}
	return false
}
