package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"expensetracker/internal/models"
	"expensetracker/internal/workflow"
	"expensetracker/pkg/apiclient"
	"expensetracker/pkg/qrcode"
	"expensetracker/pkg/slip"
)

const colorReset = "\033[0m"

func cmdProjects(ctx context.Context, client *apiclient.Client) error {
	mgr, err := loadManager(ctx, client)
	if err != nil {
		return err
	}

	projects := mgr.Projects()
	if len(projects) == 0 {
		fmt.Println("No projects yet.")
		return nil
	}

	totals := workflow.TotalsByProject(projects, mgr.Expenses())

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROJECT\tADMIN\tSTART\tEND\tTOTAL EXPENSE")
	for i, p := range projects {
		end := "Ongoing"
		if p.EndDate != nil {
			end = *p.EndDate
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\n",
			p.ID, p.ProjectName, p.ProjectAdminName, p.StartDate, end, totals[i].Total)
	}
	return w.Flush()
}

func cmdCreateProject(ctx context.Context, client *apiclient.Client, args []string) error {
	fs := flag.NewFlagSet("create-project", flag.ExitOnError)
	name := fs.String("name", "", "Project name")
	start := fs.String("start", "", "Start date (YYYY-MM-DD)")
	end := fs.String("end", "", "End date (YYYY-MM-DD, optional)")
	fs.Parse(args)

	mgr, err := loadManager(ctx, client)
	if err != nil {
		return err
	}
	sess := mgr.Session()

	if *name == "" || *start == "" {
		return fmt.Errorf("create-project requires -name and -start")
	}

	project := models.Project{
		ProjectName:      *name,
		ProjectAdminID:   sess.UserID,
		ProjectAdminName: sess.Name,
		StartDate:        *start,
	}
	if *end != "" {
		project.EndDate = end
	}

	created, err := client.CreateProject(ctx, project)
	if err != nil {
		return fmt.Errorf("project creation failed: %w", err)
	}

	// The creator is enrolled as the project's admin member right away so
	// role resolution works on the very next view.
	_, err = client.AddMember(ctx, models.Membership{
		ProjectID:   created.ID,
		MemberID:    sess.UserID,
		MemberName:  sess.Name,
		ProjectName: created.ProjectName,
		MemberRole:  models.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("project created (id %d) but admin enrollment failed: %w", created.ID, err)
	}

	fmt.Printf("Project %q created with id %d; you are its admin.\n", created.ProjectName, created.ID)
	return nil
}

func cmdMembers(ctx context.Context, client *apiclient.Client, args []string) error {
	fs := flag.NewFlagSet("members", flag.ExitOnError)
	project := fs.Int("project", 0, "Project id")
	fs.Parse(args)

	if _, err := loadManager(ctx, client); err != nil {
		return err
	}
	if *project == 0 {
		return fmt.Errorf("members requires -project")
	}

	members, err := client.ProjectMembers(ctx, *project)
	if err != nil {
		return err
	}
	if len(members) == 0 {
		fmt.Println("No members assigned yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MEMBER ID\tNAME\tROLE")
	for _, m := range members {
		fmt.Fprintf(w, "%d\t%s\t%s\n", m.MemberID, m.MemberName, m.MemberRole)
	}
	return w.Flush()
}

func cmdAddMember(ctx context.Context, client *apiclient.Client, args []string) error {
	fs := flag.NewFlagSet("add-member", flag.ExitOnError)
	project := fs.Int("project", 0, "Project id")
	member := fs.Int("member", 0, "User id to assign")
	role := fs.String("role", string(models.RoleMember), "Role: admin or member")
	fs.Parse(args)

	if _, err := loadManager(ctx, client); err != nil {
		return err
	}
	if *project == 0 || *member == 0 {
		return fmt.Errorf("add-member requires -project and -member")
	}

	// Denormalized names come from the currently loaded lists, mirroring
	// what the membership row will be displayed with.
	projects, err := client.ListProjects(ctx)
	if err != nil {
		return err
	}
	projectName := ""
	for _, p := range projects {
		if p.ID == *project {
			projectName = p.ProjectName
			break
		}
	}
	if projectName == "" {
		return fmt.Errorf("project %d not found", *project)
	}

	users, err := client.ListUsers(ctx)
	if err != nil {
		return err
	}
	memberName := ""
	for _, u := range users {
		if u.ID == *member {
			memberName = u.Name
			break
		}
	}
	if memberName == "" {
		return fmt.Errorf("user %d not found", *member)
	}

	_, err = client.AddMember(ctx, models.Membership{
		ProjectID:   *project,
		MemberID:    *member,
		MemberName:  memberName,
		ProjectName: projectName,
		MemberRole:  models.Role(*role),
	})
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	fmt.Printf("Added %s to %s as %s.\n", memberName, projectName, *role)
	return nil
}

func cmdExpenses(ctx context.Context, client *apiclient.Client, args []string) error {
	fs := flag.NewFlagSet("expenses", flag.ExitOnError)
	project := fs.Int("project", 0, "Only show expenses of this project")
	fs.Parse(args)

	mgr, err := loadManager(ctx, client)
	if err != nil {
		return err
	}

	expenses := mgr.Expenses()
	if *project != 0 {
		if err := mgr.SelectProject(ctx, *project); err != nil {
			return err
		}
		expenses = mgr.ProjectExpenses()
	}

	if len(expenses) == 0 {
		fmt.Println("No expenses found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROJECT\tDATE\tNAME\tMEMBER\tAMOUNT\tTYPE\tSTATUS")
	for _, e := range expenses {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\t%s\t%s%s%s\n",
			e.ID, e.ProjectName, e.ExpenseDate, e.ExpenseName, e.MemberName,
			e.Amount, e.ExpenseType,
			workflow.StatusColor(e.ExpenseStatus), e.ExpenseStatus, colorReset)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("Total: %d\n", workflow.TotalAmount(expenses))
	return nil
}

func cmdAddExpense(ctx context.Context, client *apiclient.Client, args []string) error {
	fs := flag.NewFlagSet("add-expense", flag.ExitOnError)
	project := fs.String("project", "", "Project id")
	name := fs.String("name", "", "Expense name")
	amount := fs.String("amount", "", "Amount (whole currency units)")
	date := fs.String("date", "", "Expense date (YYYY-MM-DD)")
	expType := fs.String("type", "", "Type: food, travel, hotel or others")
	status := fs.String("status", "", "Status (admins only; members always submit Pending Approval)")
	detail := fs.String("detail", "", "Optional detail text")
	proof := fs.String("proof", "", "Optional proof: a slip image path or a reference string")
	fs.Parse(args)

	mgr, err := loadManager(ctx, client)
	if err != nil {
		return err
	}

	projectID, _ := strconv.Atoi(*project)
	if err := mgr.SelectProject(ctx, projectID); err != nil {
		return err
	}

	role := mgr.Role()
	if role != models.RoleAdmin && *status != "" && *status != string(models.StatusPendingApproval) {
		fmt.Println("Note: members always submit expenses as Pending Approval; ignoring -status.")
	}
	if role == models.RoleAdmin && *status == "" {
		return fmt.Errorf("as project admin you must pick a -status; one of: %v", models.AllStatuses)
	}

	proofRef := *proof
	if proofRef != "" {
		if _, statErr := os.Stat(proofRef); statErr == nil {
			if payload, decErr := slip.DecodeProof(proofRef); decErr == nil {
				proofRef = payload
			} else {
				fmt.Printf("Note: %v; attaching the file path instead.\n", decErr)
			}
		}
	}

	created, err := mgr.SubmitExpense(ctx, workflow.ExpenseForm{
		ProjectID: *project,
		Name:      *name,
		Amount:    *amount,
		Date:      *date,
		Type:      *expType,
		Status:    *status,
		Detail:    *detail,
		Proof:     proofRef,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Expense %q (id %d) added to %s with status %s%s%s.\n",
		created.ExpenseName, created.ID, created.ProjectName,
		workflow.StatusColor(created.ExpenseStatus), created.ExpenseStatus, colorReset)
	return nil
}

func cmdSetStatus(ctx context.Context, client *apiclient.Client, args []string) error {
	fs := flag.NewFlagSet("set-status", flag.ExitOnError)
	expense := fs.Int("expense", 0, "Expense id")
	status := fs.String("status", "", "New status")
	fs.Parse(args)

	mgr, err := loadManager(ctx, client)
	if err != nil {
		return err
	}
	if *expense == 0 || *status == "" {
		return fmt.Errorf("set-status requires -expense and -status")
	}

	var target *models.Expense
	for _, e := range mgr.Expenses() {
		if e.ID == *expense {
			target = &e
			break
		}
	}
	if target == nil {
		return fmt.Errorf("expense %d not found", *expense)
	}

	// Role is derived for the expense's own project before the update.
	if err := mgr.SelectProject(ctx, target.ProjectID); err != nil {
		return err
	}

	updated, err := mgr.UpdateStatus(ctx, *expense, models.ExpenseStatus(*status))
	if err != nil {
		return err
	}
	fmt.Printf("Expense %q is now %s%s%s.\n",
		updated.ExpenseName, workflow.StatusColor(updated.ExpenseStatus), updated.ExpenseStatus, colorReset)
	return nil
}

func cmdReimburseQR(ctx context.Context, client *apiclient.Client, args []string) error {
	fs := flag.NewFlagSet("reimburse-qr", flag.ExitOnError)
	expense := fs.Int("expense", 0, "Expense id")
	promptPayID := fs.String("promptpay", "", "Recipient PromptPay id (phone or tax id)")
	fs.Parse(args)

	mgr, err := loadManager(ctx, client)
	if err != nil {
		return err
	}
	if *expense == 0 || *promptPayID == "" {
		return fmt.Errorf("reimburse-qr requires -expense and -promptpay")
	}

	var target *models.Expense
	for _, e := range mgr.Expenses() {
		if e.ID == *expense {
			target = &e
			break
		}
	}
	if target == nil {
		return fmt.Errorf("expense %d not found", *expense)
	}

	filename, err := qrcode.Generate(*promptPayID, target.Amount)
	if err != nil {
		return err
	}
	fmt.Printf("QR code for reimbursing %q (%d) written to %s\n",
		target.ExpenseName, target.Amount, filename)
	return nil
}
