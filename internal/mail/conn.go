package mail

import (
	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// conn is the slice of the IMAP protocol the mailbox operations drive.
// The production implementation wraps *imapclient.Client and collapses
// the command/Wait pairs into plain calls.
type conn interface {
	Select(folder string) error
	List() ([]*imap.ListData, error)
	SearchUIDs(criteria *imap.SearchCriteria) ([]imap.UID, error)
	FetchEnvelopes(uids imap.UIDSet) ([]*imapclient.FetchMessageBuffer, error)
	FetchBody(uids imap.UIDSet, section *imap.FetchItemBodySection) (*imapclient.FetchMessageBuffer, error)
	Move(uids imap.UIDSet, folder string) error
	Copy(uids imap.UIDSet, folder string) error
	AddDeletedFlag(uids imap.UIDSet) error
	Expunge() error
}

type clientConn struct {
	c *imapclient.Client
}

func (cc *clientConn) Select(folder string) error {
	_, err := cc.c.Select(folder, nil).Wait()
	return err
}

func (cc *clientConn) List() ([]*imap.ListData, error) {
	return cc.c.List("", "*", nil).Collect()
}

func (cc *clientConn) SearchUIDs(criteria *imap.SearchCriteria) ([]imap.UID, error) {
	data, err := cc.c.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, err
	}
	return data.AllUIDs(), nil
}

func (cc *clientConn) FetchEnvelopes(uids imap.UIDSet) ([]*imapclient.FetchMessageBuffer, error) {
	fetchCmd := cc.c.Fetch(uids, &imap.FetchOptions{
		Envelope: true,
		Flags:    true,
		UID:      true,
	})

	var bufs []*imapclient.FetchMessageBuffer
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}
		buf, err := msg.Collect()
		if err != nil {
			// A single unreadable message does not fail the listing.
			continue
		}
		bufs = append(bufs, buf)
	}
	if err := fetchCmd.Close(); err != nil {
		return nil, err
	}
	return bufs, nil
}

func (cc *clientConn) FetchBody(
	uids imap.UIDSet,
	section *imap.FetchItemBodySection,
) (*imapclient.FetchMessageBuffer, error) {
	fetchCmd := cc.c.Fetch(uids, &imap.FetchOptions{
		Envelope:    true,
		Flags:       true,
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{section},
	})

	msg := fetchCmd.Next()
	if msg == nil {
		// No message for the UID set; nil, nil lets the caller decide
		// how to report the absence.
		if err := fetchCmd.Close(); err != nil {
			return nil, err
		}
		return nil, nil
	}

	buf, err := msg.Collect()
	closeErr := fetchCmd.Close()
	if err != nil {
		return nil, err
	}
	if closeErr != nil {
		return nil, closeErr
	}
	return buf, nil
}

func (cc *clientConn) Move(uids imap.UIDSet, folder string) error {
	_, err := cc.c.Move(uids, folder).Wait()
	return err
}

func (cc *clientConn) Copy(uids imap.UIDSet, folder string) error {
	_, err := cc.c.Copy(uids, folder).Wait()
	return err
}

func (cc *clientConn) AddDeletedFlag(uids imap.UIDSet) error {
	return cc.c.Store(uids, &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagDeleted},
	}, nil).Close()
}

func (cc *clientConn) Expunge() error {
	return cc.c.Expunge().Close()
}
