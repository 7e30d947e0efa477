package config

import (
	"fmt"
	"time"
)

// NodeParams is the frozen per-Node settings snapshot referenced as `p` in
// spec §3.1 ("Configuration snapshot"). It is built once from a Config
// section and handed to the Node at construction; reconfiguration builds a
// fresh NodeParams and swaps it in under the Node mutex rather than mutating
// fields in place (spec §9 "nrpts handling during reconfiguration").
type NodeParams struct {
	// Identity
	Name          string
	Callsign      string
	RXChannel     string
	TXChannel     string
	Context       string
	IDRecording   string
	IDTalkover    string
	Remote        string // rig tag, empty if this Node has no remote base
	CallerID      string
	AccountCode   string
	ToneZone      string

	// Timers
	HangTime            time.Duration
	AltHangTime         time.Duration
	TOTime              time.Duration
	IDTime              time.Duration
	PoliteID            time.Duration
	TailMessageTime     time.Duration
	TailSquashedTime    time.Duration
	SleepTime           time.Duration
	LinkActTime         time.Duration
	LinkActTimerWarn    time.Duration
	RptInactTime        time.Duration
	TimeOutResetKerchunkInterval time.Duration

	// Duplex/behavior
	Duplex     int // 0..4
	Simple     bool
	Parrot     int // 0 off, 1 on-command, 2 always
	ParrotTime time.Duration

	// Functions
	FuncChar         byte
	EndChar          byte
	Functions        string
	LinkFunctions    string
	PhoneFunctions   string
	DPhoneFunctions  string
	AltFunctions     string
	StartupMacro     string
	MacroSection     string
	ToneMacro        string
	MDCMacro         string
	DTMFKeys         string

	// Remote base
	IOPort           string
	IOSpeed          int
	CivAddr          byte
	DefaultSplit2M   uint64
	DefaultSplit70CM uint64
	RemoteMars       bool

	// Linking
	Nodes               string // section name of the [nodes] table to use
	ExtNodes            string
	ExtNodeFiles         []string
	PatchConnect        string
	LocalLinkNodes      []string
	CTGroup             string
	LinkToLink          bool
	PropagateDTMF       bool
	PropagatePhoneDTMF  bool

	// Audio gains (dB, applied by the host mixer; carried through for telemetry math)
	ERXGain       float64
	ETXGain       float64
	TRXGain       float64
	TTXGain       float64
	LinkMonGain   float64
	TelemNomGain  float64
	TelemDuckGain float64

	// Voting
	VoterType   string // "", "repeater"
	VoterMode   string
	VoterMargin float64
	VoterOneShot bool

	// Sys-states: s0..s9, each a raw comma-separated toggle set
	SysStates [10]string

	// Archiving
	ArchiveDir      string
	ArchiveDateFmt  string
	ArchiveFormat   string
	MonMinBlocks    int
	ArchiveAudio    bool

	// Post hooks
	StatPostProgram string
	StatPostURL     string
	DiscPgm         string
	ConnPgm         string

	// APRStt
	APRSTT bool

	Raw Section // escape hatch for verb handlers that need an unmapped key
}

// ms is a convenience for reading a millisecond-valued key as a Duration.
func ms(s Section, key string, def time.Duration) time.Duration {
	defMS := def.Milliseconds()
	return time.Duration(s.Int(key, int(defMS))) * time.Millisecond
}

// NodeParamsFromSection builds a NodeParams snapshot from a parsed Config's
// per-Node section, applying the defaults documented in spec §6.1/§9 (the
// authoritative defaults live here rather than scattered across callers).
func NodeParamsFromSection(name string, s Section) *NodeParams {
	p := &NodeParams{
		Name:        name,
		Callsign:    s.String("idrecording", name),
		RXChannel:   s.String("rxchannel", ""),
		TXChannel:   s.String("txchannel", ""),
		Context:     s.String("context", "radio-secure"),
		IDRecording: s.String("idrecording", ""),
		IDTalkover:  s.String("idtalkover", ""),
		Remote:      s.String("remote", ""),
		CallerID:    s.String("callerid", ""),
		AccountCode: s.String("accountcode", ""),
		ToneZone:    s.String("tonezone", ""),

		HangTime:         ms(s, "hangtime", 3*time.Second),
		AltHangTime:      ms(s, "althangtime", 3*time.Second),
		TOTime:           ms(s, "totime", 180*time.Second),
		IDTime:           ms(s, "idtime", 5*time.Minute),
		PoliteID:         ms(s, "politeid", 30*time.Second),
		TailMessageTime:  ms(s, "tailmessagetime", 0),
		TailSquashedTime: ms(s, "tailsquashedtime", 0),
		SleepTime:        ms(s, "sleeptime", 0),
		LinkActTime:      ms(s, "lnkacttime", 0),
		LinkActTimerWarn: ms(s, "lnkacttimerwarn", 0),
		RptInactTime:     ms(s, "rptinacttime", 0),
		TimeOutResetKerchunkInterval: ms(s, "time_out_reset_kerchunk_interval", 0),

		Duplex:     s.Int("duplex", 2),
		Simple:     s.Bool("simple", false),
		Parrot:     s.Int("parrot", 0),
		ParrotTime: ms(s, "parrottime", time.Second),

		FuncChar:        firstByte(s.String("funcchar", "*"), '*'),
		EndChar:         firstByte(s.String("endchar", "#"), '#'),
		Functions:       s.String("functions", "functions"),
		LinkFunctions:   s.String("link_functions", ""),
		PhoneFunctions:  s.String("phone_functions", ""),
		DPhoneFunctions: s.String("dphone_functions", ""),
		AltFunctions:    s.String("alt_functions", ""),
		StartupMacro:    s.String("startup_macro", ""),
		MacroSection:    s.String("macro", "macro"),
		ToneMacro:       s.String("tonemacro", ""),
		MDCMacro:        s.String("mdcmacro", ""),
		DTMFKeys:        s.String("dtmfkeys", ""),

		IOPort:           s.String("ioport", ""),
		IOSpeed:          s.Int("iospeed", 9600),
		CivAddr:          byte(s.Int("civaddr", 0)),
		DefaultSplit2M:   uint64(s.Int("default_split_2m", 600000)) * 100,
		DefaultSplit70CM: uint64(s.Int("default_split_70cm", 5000000)) * 100,
		RemoteMars:       s.Bool("remote_mars", false),

		Nodes:              s.String("nodes", "nodes"),
		ExtNodes:           s.String("extnodes", ""),
		ExtNodeFiles:       s.CSV("extnodefiles"),
		PatchConnect:       s.String("patchconnect", ""),
		LocalLinkNodes:     s.CSV("locallinknodes"),
		CTGroup:            s.String("ctgroup", "0"),
		LinkToLink:         s.Bool("linktolink", false),
		PropagateDTMF:      s.Bool("propagate_dtmf", false),
		PropagatePhoneDTMF: s.Bool("propagate_phonedtmf", false),

		ERXGain:       dB(s, "erxgain"),
		ETXGain:       dB(s, "etxgain"),
		TRXGain:       dB(s, "trxgain"),
		TTXGain:       dB(s, "ttxgain"),
		LinkMonGain:   dB(s, "linkmongain"),
		TelemNomGain:  dB(s, "telemnomgain"),
		TelemDuckGain: dB(s, "telemduckgain"),

		VoterType:    s.String("votertype", ""),
		VoterMode:    s.String("votermode", ""),
		VoterMargin:  dB(s, "votermargin"),
		VoterOneShot: s.Bool("voter_oneshot", true),

		ArchiveDir:     s.String("archivedir", ""),
		ArchiveDateFmt: s.String("archivedatefmt", "20060102"),
		ArchiveFormat:  s.String("archiveformat", "wav"),
		MonMinBlocks:   s.Int("monminblocks", 0),
		ArchiveAudio:   s.Bool("archiveaudio", false),

		StatPostProgram: s.String("statpost_program", ""),
		StatPostURL:     s.String("statpost_url", ""),
		DiscPgm:         s.String("discpgm", ""),
		ConnPgm:         s.String("connpgm", ""),

		APRSTT: s.Bool("aprstt", false),

		Raw: s,
	}
	for i := 0; i < 10; i++ {
		p.SysStates[i] = s.String(sysStateKey(i), "")
	}
	return p
}

func sysStateKey(i int) string {
	return "s" + string(rune('0'+i))
}

func firstByte(s string, def byte) byte {
	if len(s) == 0 {
		return def
	}
	return s[0]
}

func dB(s Section, key string) float64 {
	v, ok := s[key]
	if !ok {
		return 0
	}
	var f float64
	if _, err := fmt.Sscan(v, &f); err != nil {
		return 0
	}
	return f
}
