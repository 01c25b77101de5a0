package coordinator

import "context"

// RunDkg drives a full DKG session to completion by calling each selected
// Signer's production endpoints (/signer/dkg/round1, /signer/dkg/round2)
// and funnelling the results through the session's own submission
// entry points, then finalising. It is a convenience for callers — a CLI
// tool or an admin endpoint — that want one-shot DKG execution instead of
// driving SubmitRound1/SubmitRound2 themselves from each Signer process.
func (c *Coordinator) RunDkg(ctx context.Context, req InitDkgRequest) (*DkgSession, error) {
	session, err := c.InitDkg(ctx, req)
	if err != nil {
		return nil, err
	}

	for _, id := range session.ParticipantIDs {
		res, err := c.signers.Round1(ctx, session.ParticipantEndpoints[id], Round1Request{
			SessionID:     session.SessionID,
			ParticipantID: id,
			Threshold:     session.Threshold,
			Total:         session.Total,
			Ciphersuite:   session.Ciphersuite,
		})
		if err != nil {
			return c.failDkg(session.SessionID, "round1 request to participant "+itoa(id)+" failed: "+err.Error())
		}
		if session.ParticipantHPKEPubkey == nil {
			session.ParticipantHPKEPubkey = map[uint16]string{}
		}
		if _, ok := session.ParticipantHPKEPubkey[id]; !ok {
			session.ParticipantHPKEPubkey[id] = res.HPKEPubkey
		}
		session, err = c.SubmitRound1(ctx, session.SessionID, id, res.Package)
		if err != nil {
			return c.failDkg(session.SessionID, "recording round1 for participant "+itoa(id)+" failed: "+err.Error())
		}
	}

	for _, id := range session.ParticipantIDs {
		res, err := c.signers.Round2(ctx, session.ParticipantEndpoints[id], Round2Request{
			SessionID:      session.SessionID,
			Round1Packages: session.Round1Packages,
			HPKEPubkeys:    session.ParticipantHPKEPubkey,
		})
		if err != nil {
			return c.failDkg(session.SessionID, "round2 request to participant "+itoa(id)+" failed: "+err.Error())
		}
		for to, sealed := range res.SealedByRecipient {
			session, err = c.SubmitRound2(ctx, session.SessionID, id, to, sealed)
			if err != nil {
				return c.failDkg(session.SessionID, "recording round2 from "+itoa(id)+" to "+itoa(to)+" failed: "+err.Error())
			}
		}
	}

	return c.FinalizeDkg(ctx, session.SessionID)
}

func itoa(id uint16) string {
	if id == 0 {
		return "0"
	}
	var buf [5]byte
	i := len(buf)
	for id > 0 {
		i--
		buf[i] = byte('0' + id%10)
		id /= 10
	}
	return string(buf[i:])
}
