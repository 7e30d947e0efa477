package rpt

import (
	"strconv"
	"time"

	"github.com/dbehnke/rptd/internal/dtmf"
	"github.com/dbehnke/rptd/internal/link"
)

// serviceLinks drives the link manager's own timer/gossip/destroy cycle
// once per iteration, alongside the Node's own timer bank (spec §4.3.1
// newkey downgrade, §4.3.4 link-list gossip, §4.3.5 dead-link reaping).
func (n *Node) serviceLinks(elapsed time.Duration) {
	expiredNewKey, dueGossip := n.Links.Tick(elapsed)
	for _, l := range expiredNewKey {
		n.log.Infow("rpt: link newkey grace expired, downgrading", "node", n.Name, "link", l.Name)
	}
	if dueGossip {
		n.Links.Broadcast(n.Links.GossipLine(), "")
	}
	for _, l := range n.Links.All() {
		if n.Links.ShouldDestroy(l) {
			n.Links.Remove(l)
		}
	}
}

// dispatchLinkText decodes one text-control line from linkName and acts
// on it per the 7-verb grammar of spec §4.3.3, forwarding to every other
// connected link unless the message addresses this node directly.
func (n *Node) dispatchLinkText(linkName, text string) {
	msg, err := link.Parse(text)
	if err != nil {
		n.log.Warnw("rpt: malformed link text", "node", n.Name, "link", linkName, "error", err)
		return
	}

	switch msg.Kind {
	case link.MsgDTMF:
		if link.IsForUs(msg.Dest, n.Links.SelfName) {
			n.DTMF.Process(dtmf.SourceLink, msg.DTMFChar, time.Now())
		}
	case link.MsgKeying:
		n.applyLinkKeying(linkName, msg)
	case link.MsgLinkList:
		if l := n.Links.Find(msg.Src); l != nil {
			l.LinkList = msg.List
		}
	case link.MsgMDC:
		// MDC1200 over link-text is recovered from the data stream but not
		// locally decoded here; forwarded below like any other message.
	case link.MsgPrivate:
		if link.IsForUs(msg.Dest, n.Links.SelfName) {
			n.log.Infow("rpt: private link message", "node", n.Name, "from", msg.Src, "body", msg.Body)
		}
	case link.MsgCTCSS:
		if link.IsForUs(msg.Dest, n.Links.SelfName) && msg.CTGroup != n.P.CTGroup {
			return
		}
	}

	if !link.IsForUs(msg.Dest, n.Links.SelfName) || msg.Kind == link.MsgLinkList {
		n.Links.Broadcast(text, linkName)
	}
}

func (n *Node) applyLinkKeying(linkName string, msg link.Msg) {
	l := n.Links.Find(linkName)
	if l == nil {
		return
	}
	if msg.KeyQuery {
		secs := 0
		if !l.LastFrameSent.IsZero() {
			secs = int(time.Since(l.LastFrameSent).Seconds())
		}
		reply := link.Msg{Kind: link.MsgKeying, Dest: msg.Src, Src: n.Links.SelfName, Seq: strconv.Itoa(secs), Keyed: l.LastRX}
		if l.Writer != nil {
			_ = l.Writer.WriteText(reply.Format())
		}
		return
	}
	l.LastRX = msg.Keyed
	if msg.Keyed {
		l.LastRealRX = true
		l.NoteRX()
	} else {
		l.NoteUnkey()
	}
}
